// Package cluster implements duplicate-cluster discovery, spec.md §4.6: an
// adaptive per-image similarity threshold, union-find linking across query
// results, and representative selection within each resulting cluster.
package cluster
