// Package cotahist decodes the B3 COTAHIST fixed-width trade-history file.
//
// Each data line (record type "01") is at least 245 characters long and carries
// one instrument's session summary. Only three market segments are kept:
//   - 010: spot equities
//   - 070: call options
//   - 080: put options
//
// Numeric fields are zero-padded integers with 2 implied decimals.
// Anything that does not fit the layout is skipped, never reported as an error.
package cotahist
