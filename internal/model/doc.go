// Package model defines shared data types used across the B3 snapshot updater.
//
// Conventions:
//   - Prices, volumes, strikes and percentages: shopspring decimal values.
//     Optional values are decimal.NullDecimal and encode as JSON null.
//   - Dates: day-granularity Date values, text form YYYY-MM-DD.
//   - Tickers: always normalized with NormalizeTicker (trimmed, upper case).
//   - JSON keys follow the published stocks.json document.
package model
