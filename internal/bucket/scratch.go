package bucket

import (
	"os"

	"github.com/r888888888/iqdb/internal/mmap"
)

// Scratch is the paged backing file for mutable-mode bucket tails (spec.md
// §4.2, §5). It is created unlinked so it vanishes when the process exits,
// and it never shrinks during a run: pages are appended, never freed.
type Scratch struct {
	f        *os.File
	pageSize int
	size     int64
}

// NewScratch creates an unlinked temporary file in dir (the OS default
// temp directory if empty) to back paged bucket tails.
func NewScratch(dir string, pageSize int) (*Scratch, error) {
	f, err := os.CreateTemp(dir, "imgsim-buckets-*.tmp")
	if err != nil {
		return nil, err
	}
	// Unlink immediately: on Unix the descriptor stays valid for the life of
	// the process even though the directory entry is gone.
	_ = os.Remove(f.Name())

	if pageSize <= 0 {
		pageSize = os.Getpagesize()
	}
	return &Scratch{f: f, pageSize: pageSize}, nil
}

// Grow extends the file by enough whole pages to hold n bytes and returns
// the byte offset of the start of the newly grown region. A nil Scratch
// (no backing file) returns os.ErrInvalid.
func (s *Scratch) Grow(n int) (int64, error) {
	if s == nil {
		return 0, os.ErrInvalid
	}
	chunk := int64(((n + s.pageSize - 1) / s.pageSize) * s.pageSize)
	if chunk == 0 {
		chunk = int64(s.pageSize)
	}
	offset := s.size
	if err := s.f.Truncate(s.size + chunk); err != nil {
		return 0, err
	}
	s.size += chunk
	return offset, nil
}

// WriteAt writes b at the given offset, which must lie within a previously
// grown region.
func (s *Scratch) WriteAt(b []byte, off int64) error {
	_, err := s.f.WriteAt(b, off)
	return err
}

// ReadAt reads len(b) bytes starting at off.
func (s *Scratch) ReadAt(b []byte, off int64) (int, error) {
	return s.f.ReadAt(b, off)
}

// Map memory-maps size bytes starting at off. The scratch file keeps
// ownership of the descriptor; the returned Mapping must still be Closed by
// the caller to release the mapped pages, but Close will not close the fd.
func (s *Scratch) Map(off int64, size int) (*mmap.Mapping, error) {
	return mmap.Map(s.f, off, size)
}

// Close releases the underlying (already-unlinked) file descriptor.
func (s *Scratch) Close() error {
	return s.f.Close()
}
