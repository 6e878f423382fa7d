// Package api provides a read-only client for the SkyBlock auction REST API.
//
// The auction snapshot is paginated; page 0 carries the total page count and
// the lastUpdated freshness timestamp the timing predictor keys off. Requests
// are retried with exponential backoff and jitter.
package api
