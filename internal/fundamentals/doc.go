// Package fundamentals computes the valuation metrics published per
// instrument: Graham upside, P/VP, dividend yield and percentage changes.
//
// All results are rounded to two decimal places and are null when an input
// is missing or the metric is undefined.
package fundamentals
