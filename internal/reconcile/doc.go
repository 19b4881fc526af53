// Package reconcile merges provider records with exchange equity records.
//
// The exchange is authoritative for traded price, volume and day change,
// but only when it carries a present, non-zero value. Fundamentals always
// come from the provider.
package reconcile
