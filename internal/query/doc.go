// Package query implements the scored scan of spec.md §4.3: given a query
// signature, accumulate DC and wavelet-coefficient contributions across the
// catalog and bucket set to produce a ranked, normalized similarity list.
package query
