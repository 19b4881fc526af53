// Package pipeline runs one snapshot update.
//
// Flow:
//
//	exchange source -> universe -> fetcher pool -> reconcile -> options -> output
//
// The exchange dataset is optional: when every source fails the run continues
// with provider data only. An empty result set aborts before anything is
// written, so the previous snapshot stays in place.
package pipeline
