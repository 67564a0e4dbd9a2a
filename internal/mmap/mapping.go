package mmap

import (
	"os"
	"sync/atomic"
)

// Mapping is a read-only memory-mapped view of a file, or a sub-range of one.
type Mapping struct {
	full     []byte // page-aligned mmap region as returned by the OS
	data     []byte // caller's requested window into full
	f        *os.File
	ownsFile bool // whether Close should also close f
	closed   atomic.Bool
}

// Open maps the first size bytes of the file at path, starting at offset.
// A size of 0 maps the whole file from offset to EOF. The file is opened
// and owned by the returned Mapping.
func Open(path string, offset int64, size int) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	m, err := Map(f, offset, size)
	if err != nil {
		f.Close()
		return nil, err
	}
	m.ownsFile = true
	return m, nil
}

// Map maps size bytes of an already-open file starting at offset. Unlike
// Open, it does not take ownership of f: the caller remains responsible for
// closing it, which is required for scratch files that have been unlinked
// from the filesystem and so have no path to reopen by.
//
// A size of 0 maps from offset to the file's current end.
func Map(f *os.File, offset int64, size int) (*Mapping, error) {
	if size == 0 {
		fi, err := f.Stat()
		if err != nil {
			return nil, err
		}
		size = int(fi.Size() - offset)
	}

	if size <= 0 {
		return &Mapping{f: f}, nil
	}

	full, data, err := mmap(f, offset, size)
	if err != nil {
		return nil, err
	}

	return &Mapping{full: full, data: data, f: f}, nil
}

// Bytes returns the mapped region. The slice is valid until Close.
func (m *Mapping) Bytes() []byte {
	if m == nil || m.closed.Load() {
		return nil
	}
	return m.data
}

// Len returns the size of the mapped region.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.data)
}

// Region returns a sub-slice view, re-validated against the current mapping.
func (m *Mapping) Region(offset, size int) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || size < 0 || offset+size > len(m.data) {
		return nil, ErrOutOfBounds
	}
	return m.data[offset : offset+size], nil
}

// Advise hints the kernel about future access patterns over the whole mapping.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return advise(m.data, pattern)
}

// Close unmaps the region and, if this Mapping opened the file itself,
// closes the backing file descriptor. Idempotent.
func (m *Mapping) Close() error {
	if m == nil || m.closed.Swap(true) {
		return nil
	}
	var err error
	if m.full != nil {
		err = munmap(m.full)
		m.full = nil
		m.data = nil
	}
	if m.f != nil && m.ownsFile {
		if cerr := m.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
