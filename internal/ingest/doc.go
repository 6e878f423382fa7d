// Package ingest pulls the paginated market snapshot and enriches raw
// listings into comparable form.
//
// A snapshot fetch reads page 0 for the page count and freshness stamp, then
// fans out over the remaining pages. A failed page contributes zero listings
// rather than failing the cycle; the next cycle heals the gap.
//
// Enrichment decodes each listing's item metadata blob (base64, gzip, NBT)
// for the stack quantity, derives the rarity from lore, and builds the
// canonical comparison key. Listings priced outside the plausible flip band
// are dropped before the expensive decode.
package ingest
