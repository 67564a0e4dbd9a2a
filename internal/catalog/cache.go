package catalog

import (
	"os"

	"github.com/r888888888/iqdb/internal/sig"
)

// SignatureCache is the authoritative store of full ImgData records for
// mutable-mode catalogs, addressed by dense catalog index (spec.md §4.4).
// It is created lazily and is not persisted across runs.
type SignatureCache interface {
	Get(index int) (sig.ImgData, error)
	Put(index int, d sig.ImgData) error
	Close() error
}

// MemoryCache keeps every signature resident, trading memory for avoiding
// file I/O. Useful for small corpora and for tests.
type MemoryCache struct {
	records []sig.ImgData
}

// NewMemoryCache creates an empty in-memory signature cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(index int) (sig.ImgData, error) {
	if index < 0 || index >= len(c.records) {
		return sig.ImgData{}, &ErrUnknownID{}
	}
	return c.records[index], nil
}

func (c *MemoryCache) Put(index int, d sig.ImgData) error {
	if index >= len(c.records) {
		grown := make([]sig.ImgData, index+1)
		copy(grown, c.records)
		c.records = grown
	}
	c.records[index] = d
	return nil
}

func (c *MemoryCache) Close() error { return nil }

// FileCache backs the signature cache with an unlinked temporary file, one
// fixed-size sig.RecordSize record per index, mirroring the on-disk layout
// the database file itself uses for signatures (spec.md §4.4, §6).
type FileCache struct {
	f *os.File
}

// NewFileCache creates an unlinked scratch file in dir (OS default temp dir
// if empty).
func NewFileCache(dir string) (*FileCache, error) {
	f, err := os.CreateTemp(dir, "imgsim-sigcache-*.tmp")
	if err != nil {
		return nil, err
	}
	_ = os.Remove(f.Name())
	return &FileCache{f: f}, nil
}

func (c *FileCache) Get(index int) (sig.ImgData, error) {
	buf := make([]byte, sig.RecordSize)
	if _, err := c.f.ReadAt(buf, int64(index)*int64(sig.RecordSize)); err != nil {
		return sig.ImgData{}, err
	}
	return sig.Decode(buf), nil
}

func (c *FileCache) Put(index int, d sig.ImgData) error {
	buf := make([]byte, sig.RecordSize)
	sig.Encode(buf, d)
	_, err := c.f.WriteAt(buf, int64(index)*int64(sig.RecordSize))
	return err
}

func (c *FileCache) Close() error {
	return c.f.Close()
}
