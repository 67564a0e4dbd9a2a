// Package persist implements the on-disk database file format of
// spec.md §6: a header, a bucket-size table (statistics only — bucket
// contents are always rebuilt from the signature records on load, never
// read back directly), an image-id table, and the fixed-layout ImgData
// signature records.
//
// Saves are atomic: data is written to a temporary file in the target's
// directory and renamed into place, so a failed save never corrupts the
// existing file (spec.md §7's user-visible failure behavior for save).
//
// Load additionally understands the pre-current format versions spec.md §6
// names (1, 2, 3 and 8): legacy.go decodes each through the same fallback
// its origin used, rather than treating them as foreign files.
package persist
