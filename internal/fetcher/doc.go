// Package fetcher retrieves provider records for a ticker universe with
// bounded concurrency.
//
// Each ticker is an independent unit of work. A unit either yields a
// candidate record or is excluded; exclusions are counted and logged but
// never abort the run.
package fetcher
