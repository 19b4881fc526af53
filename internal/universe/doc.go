// Package universe builds the set of tickers processed by one run.
//
// The universe is the union of the exchange dataset, the previous snapshot
// and a seed list, normalized and sorted. The seed list is never empty: a
// built-in copy of configs/base_tickers.json backs a missing seed file.
package universe
