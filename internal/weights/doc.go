// Package weights holds the fixed scoring tables used by the query engine:
// the per-(sketch, band, channel) weight matrix and the position-to-band
// classifier, per spec.md §4.3. These are the "global mutable state" the
// design notes (spec.md §9) require be replaced with immutable constants
// computed once, not package-level mutable globals.
package weights
