// Package database provides PostgreSQL connection pool management for the
// optional purchase-ledger mirror. The JSON ledger on disk stays the source
// of truth; the database copy exists for querying across instances.
package database
