package persist

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/r888888888/iqdb/internal/bucket"
	"github.com/r888888888/iqdb/internal/catalog"
	"github.com/r888888888/iqdb/internal/mmap"
	"github.com/r888888888/iqdb/internal/sig"
)

// FileHeader is the decoded fixed-size prefix of a database file.
type FileHeader struct {
	Version      byte
	Count        int
	SignaturesAt int64
}

// decodeFileHeader decodes the fixed-width current-format header. It is
// only valid once the caller has confirmed the file is actually
// CurrentVersion with currentWidths; anything else must go through
// decodeLegacy instead, since older formats don't share this byte layout.
func decodeFileHeader(raw []byte) (FileHeader, error) {
	word := binary.LittleEndian.Uint32(raw[0:4])
	version, widths, sentinel := decodeHeader(word)
	if version != CurrentVersion || widths != currentWidths || sentinel != endianSentinel {
		return FileHeader{}, ErrBadHeader
	}
	return FileHeader{
		Version:      version,
		Count:        int(binary.LittleEndian.Uint32(raw[4:8])),
		SignaturesAt: int64(binary.LittleEndian.Uint64(raw[8:16])),
	}, nil
}

// probeHeaderWord reads just the leading 32-bit word that names a file's
// format version and field widths, without disturbing the caller's
// position expectations: it always leaves f positioned right after the word.
func probeHeaderWord(f *os.File) (version byte, widths fieldWidths, sentinel uint32, err error) {
	word4 := make([]byte, 4)
	if _, err = io.ReadFull(f, word4); err != nil {
		return
	}
	version, widths, sentinel = decodeHeader(binary.LittleEndian.Uint32(word4))
	return
}

// ReadHeader peeks at the header of a database file without loading the
// rest, for callers (e.g. mode auto-detection) that only need to know the
// version and entry count. Legacy versions are decoded far enough to report
// an accurate count; for versions 1, 2 and 3 only version and count are
// meaningful, while version 8 also reports SignaturesAt.
func ReadHeader(path string) (FileHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileHeader{}, err
	}
	defer f.Close()

	version, widths, sentinel := func() (byte, fieldWidths, uint32) {
		raw := make([]byte, 4)
		if _, err := io.ReadFull(f, raw); err != nil {
			return 0, fieldWidths{}, 0
		}
		return decodeHeader(binary.LittleEndian.Uint32(raw))
	}()

	if version == CurrentVersion && widths == currentWidths && sentinel == endianSentinel {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return FileHeader{}, err
		}
		raw := make([]byte, headerSize+countFieldSize+offsetFieldSize)
		if _, err := io.ReadFull(f, raw); err != nil {
			return FileHeader{}, err
		}
		return decodeFileHeader(raw)
	}

	if version > CurrentVersion {
		return FileHeader{}, &ErrUnsupportedVersion{Version: version}
	}
	switch version {
	case legacyV0_5_1, legacyV0_6_0, legacyV0_6_1, legacyV0_7_0:
		_, hdr, err := decodeLegacy(f, version, widths)
		return hdr, err
	default:
		return FileHeader{}, &ErrUnsupportedVersion{Version: version}
	}
}

// NormalLoaded bundles the mutable-mode structures rebuilt from a saved
// file, ready to accept further add/remove calls.
type NormalLoaded struct {
	Header  FileHeader
	Catalog *catalog.Mutable
	Buckets *bucket.MutableSet
}

// Close releases the bucket set's scratch file and the catalog's signature
// cache.
func (l *NormalLoaded) Close() error {
	var err error
	if e := l.Buckets.Close(); e != nil {
		err = e
	}
	if e := l.Catalog.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

// LoadNormal loads a database file into fully in-memory, mutable
// structures (spec.md §4.5's normal-mode load: everything read in, buckets
// rebuilt from the signatures rather than read back directly — the
// on-disk bucket-size table is informational only, see doc.go). Files
// written by a pre-current format version (1, 2, 3 or 8; see legacy.go) are
// decoded through their own documented fallback rather than rejected.
// scratchDir controls where the bucket set's paged scratch file is created.
func LoadNormal(path string, scratchDir string, pageSize int) (*NormalLoaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hdr, sigs, err := decodeSignatures(f)
	if err != nil {
		return nil, err
	}

	cache := catalog.NewMemoryCache()
	cat := catalog.NewMutable(cache)

	scratch, err := bucket.NewScratch(scratchDir, pageSize)
	if err != nil {
		return nil, err
	}
	buckets := bucket.NewMutableSet(scratch)

	for _, d := range sigs {
		id := d.ID
		info := catalog.ImageInfo{
			ID:     id,
			Width:  d.Width,
			Height: d.Height,
		}
		for c := 0; c < 3; c++ {
			info.Avgl[c] = sig.QuantizeAvg(d.AvgLF[c])
		}

		if _, err := cat.Add(id, info, d); err != nil {
			_ = buckets.Close()
			_ = cat.Close()
			return nil, err
		}
		if err := buckets.Add(d.Sig, id, d.Grayscale()); err != nil {
			_ = buckets.Close()
			_ = cat.Close()
			return nil, err
		}
	}

	return &NormalLoaded{Header: hdr, Catalog: cat, Buckets: buckets}, nil
}

// SimpleLoaded bundles the read-only structures rebuilt from a saved file,
// backed by a single memory mapping over the file itself.
type SimpleLoaded struct {
	Header  FileHeader
	Catalog *catalog.ReadOnly
	Buckets *bucket.ReadOnlySet
	mapping *mmap.Mapping
}

// Close releases the memory mapping and any owned bucket resources.
func (l *SimpleLoaded) Close() error {
	var err error
	if e := l.Buckets.Close(); e != nil {
		err = e
	}
	if e := l.mapping.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

// LoadSimple loads a database file as spec.md §4.5's simple mode does:
// the whole file memory-mapped, signatures read lazily out of the mapping,
// and buckets rebuilt (not read back from disk — see doc.go) into
// delta-encoded, insertion-ordered form before being frozen. A file written
// by a pre-current format version falls back to loadSimpleLegacy, which
// decodes eagerly instead of mapping the file, since none of those layouts
// share the current format's fixed offsets.
func LoadSimple(path string) (*SimpleLoaded, error) {
	if probe, err := os.Open(path); err == nil {
		version, widths, sentinel, perr := probeHeaderWord(probe)
		probe.Close()
		if perr != nil {
			return nil, perr
		}
		if version != CurrentVersion || widths != currentWidths || sentinel != endianSentinel {
			return loadSimpleLegacy(path, version, widths)
		}
	}

	m, err := mmap.Open(path, 0, 0)
	if err != nil {
		return nil, err
	}

	data := m.Bytes()
	if len(data) < headerSize+countFieldSize+offsetFieldSize {
		_ = m.Close()
		return nil, io.ErrUnexpectedEOF
	}
	hdr, err := decodeFileHeader(data[:headerSize+countFieldSize+offsetFieldSize])
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	l := computeLayout(hdr.Count, sig.RecordSize)
	idTable := data[l.idTableAt : l.idTableAt+int64(hdr.Count)*idEntrySize]
	ids := make([]uint64, hdr.Count)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint64(idTable[i*idEntrySize:])
	}

	cat := catalog.NewReadOnly()
	buckets := bucket.NewReadOnlySet()

	sigAt := func(index int) (sig.ImgData, error) {
		off := hdr.SignaturesAt + int64(index)*int64(sig.RecordSize)
		if off < 0 || off+int64(sig.RecordSize) > int64(len(data)) {
			return sig.ImgData{}, io.ErrUnexpectedEOF
		}
		return sig.Decode(data[off : off+int64(sig.RecordSize)]), nil
	}
	cat.SetSigReader(sigAt)

	for i, id := range ids {
		d, err := sigAt(i)
		if err != nil {
			_ = m.Close()
			return nil, err
		}
		d.ID = id

		info := catalog.ImageInfo{
			ID:     id,
			Width:  d.Width,
			Height: d.Height,
		}
		for c := 0; c < 3; c++ {
			info.Avgl[c] = sig.QuantizeAvg(d.AvgLF[c])
		}
		if _, err := cat.Add(info); err != nil {
			_ = m.Close()
			return nil, err
		}
		buckets.Add(d.Sig, uint32(i), d.Grayscale())
	}
	buckets.FreezeAll()

	return &SimpleLoaded{Header: hdr, Catalog: cat, Buckets: buckets, mapping: m}, nil
}

// loadSimpleLegacy loads a pre-current-format file into Simple mode without
// the zero-copy mmap path used for current-format files: legacy layouts are
// decoded up front into ordinary heap-backed signatures, then wired into
// the same read-only catalog and bucket set the fast path builds.
func loadSimpleLegacy(path string, version byte, widths fieldWidths) (*SimpleLoaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Seek(4, io.SeekStart); err != nil {
		return nil, err
	}

	sigs, hdr, err := decodeLegacy(f, version, widths)
	if err != nil {
		return nil, err
	}

	cat := catalog.NewReadOnly()
	buckets := bucket.NewReadOnlySet()
	cat.SetSigReader(func(index int) (sig.ImgData, error) {
		if index < 0 || index >= len(sigs) {
			return sig.ImgData{}, io.ErrUnexpectedEOF
		}
		return sigs[index], nil
	})

	for i, d := range sigs {
		info := catalog.ImageInfo{ID: d.ID, Width: d.Width, Height: d.Height}
		for c := 0; c < 3; c++ {
			info.Avgl[c] = sig.QuantizeAvg(d.AvgLF[c])
		}
		if _, err := cat.Add(info); err != nil {
			return nil, err
		}
		buckets.Add(d.Sig, uint32(i), d.Grayscale())
	}
	buckets.FreezeAll()

	return &SimpleLoaded{Header: hdr, Catalog: cat, Buckets: buckets, mapping: nil}, nil
}

// decodeSignatures reads every signature out of an open database file,
// dispatching on the header's version: the current format is read through
// its fast, fixed-offset path, and anything older goes through decodeLegacy.
func decodeSignatures(f *os.File) (FileHeader, []sig.ImgData, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return FileHeader{}, nil, err
	}
	version, widths, sentinel, err := probeHeaderWord(f)
	if err != nil {
		return FileHeader{}, nil, err
	}

	if version == CurrentVersion && widths == currentWidths && sentinel == endianSentinel {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return FileHeader{}, nil, err
		}
		hdr, ids, err := readHeaderAndIDs(f)
		if err != nil {
			return FileHeader{}, nil, err
		}
		sigs := make([]sig.ImgData, len(ids))
		recBuf := make([]byte, sig.RecordSize)
		for i, id := range ids {
			off := hdr.SignaturesAt + int64(i)*int64(sig.RecordSize)
			if _, err := f.ReadAt(recBuf, off); err != nil {
				return FileHeader{}, nil, err
			}
			d := sig.Decode(recBuf)
			d.ID = id
			sigs[i] = d
		}
		return hdr, sigs, nil
	}

	if version > CurrentVersion {
		return FileHeader{}, nil, &ErrUnsupportedVersion{Version: version}
	}
	switch version {
	case legacyV0_5_1, legacyV0_6_0, legacyV0_6_1, legacyV0_7_0:
		sigs, hdr, err := decodeLegacy(f, version, widths)
		return hdr, sigs, err
	default:
		return FileHeader{}, nil, &ErrUnsupportedVersion{Version: version}
	}
}

// readHeaderAndIDs reads the fixed header and the live portion of the id
// table (skipping IDTablePad's zero padding) from an open file.
func readHeaderAndIDs(f *os.File) (FileHeader, []uint64, error) {
	raw := make([]byte, headerSize+countFieldSize+offsetFieldSize)
	if _, err := io.ReadFull(f, raw); err != nil {
		return FileHeader{}, nil, err
	}
	hdr, err := decodeFileHeader(raw)
	if err != nil {
		return FileHeader{}, nil, err
	}

	l := computeLayout(hdr.Count, sig.RecordSize)
	buf := make([]byte, hdr.Count*idEntrySize)
	if hdr.Count > 0 {
		if _, err := f.ReadAt(buf, l.idTableAt); err != nil {
			return FileHeader{}, nil, err
		}
	}
	ids := make([]uint64, hdr.Count)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint64(buf[i*idEntrySize:])
	}
	return hdr, ids, nil
}
