// Package deltaqueue implements the delta-packed index list used for
// read-only ("simple" mode) bucket contents.
//
// Bucket contents in read-only mode are catalog indices, which are assigned
// monotonically on insertion; storing the index sequence as successive
// differences lets small, common gaps cost a single byte while still
// tolerating arbitrarily large jumps through a five-byte escape. This keeps
// the inverted index compact without a general-purpose compression library,
// per spec.md §4.2 and §9 (avoid the original's pointer-stealing cursor trick;
// use an explicit byte read position into a plain byte vector instead).
package deltaqueue
