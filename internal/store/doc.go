// Package store persists the price history and the purchase ledger as JSON
// files, surviving restarts without any external dependency.
//
// The price history keeps, per comparison key, the cheapest observed unit
// price of each ingestion cycle inside a bounded retention window. The ledger
// records every confirmed purchase and is append-only.
//
// When a database is configured, LedgerMirror writes each purchase to
// Postgres as well. The files remain the source of truth; the mirror exists
// for cross-instance querying and is best-effort.
package store
