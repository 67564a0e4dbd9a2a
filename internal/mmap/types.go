package mmap

import "errors"

// AccessPattern hints the kernel about expected access for Advise.
type AccessPattern int

const (
	// AccessDefault gives no specific advice.
	AccessDefault AccessPattern = iota
	// AccessSequential expects the region to be walked front to back, as a
	// bucket iterator does.
	AccessSequential
	// AccessRandom expects scattered reads, as query-time bucket lookups do.
	AccessRandom
)

var (
	// ErrClosed is returned when a mapping is used after Close.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrOutOfBounds is returned when a region falls outside the mapping.
	ErrOutOfBounds = errors.New("mmap: region out of bounds")
)
