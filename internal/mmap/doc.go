// Package mmap provides read-only memory-mapped file access.
//
// Simple (read-only) mode maps the whole database file through Open and
// decodes signatures from the mapping instead of copying the file into the
// Go heap. Map maps a window of a file the caller keeps open; the bucket
// scratch file exposes it (bucket.Scratch.Map), but the mutable buckets
// read their paged-out tails with ordinary ReadAt calls and do not map them.
//
// Mapping is read-only: nothing is written through a mapping.
package mmap
