// Package queue provides a binary-heap priority queue used by the query
// engine to keep the N best-scoring catalog entries seen so far without
// sorting the whole catalog, per spec.md §4.3 step 4.
package queue
