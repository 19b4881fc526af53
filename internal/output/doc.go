// Package output assembles and persists the snapshot document.
//
// The snapshot JSON is replaced atomically: it is written to a temporary
// file in the same directory and renamed over the previous file, so a
// failed run never leaves a truncated document behind.
package output
