// Package model defines shared data types used across the flip bot.
//
// Conventions:
//   - Coin amounts: int64 whole coins for listed prices, float64 for derived
//     per-unit prices and profit projections
//   - Market freshness timestamps: int64 milliseconds since Unix epoch, as
//     served by the auction API
//   - IDs: uuid.UUID for auction identifiers
package model
