package persist

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/r888888888/iqdb/internal/sig"
)

// Legacy format versions, named after imglib.h's SRZ_V0_x_y constants
// (SRZ_V0_5_1=1, SRZ_V0_6_0=2, SRZ_V0_6_1=3, SRZ_V0_7_0=8). Anything else
// below CurrentVersion was never a real on-disk format and stays rejected.
const (
	legacyV0_5_1 = 1
	legacyV0_6_0 = 2
	legacyV0_6_1 = 3
	legacyV0_7_0 = 8
)

// noBucketsSentinel is the ~uint(0) marker load_stream_old's first bucket
// slot carries when a save predates bucket persistence entirely: nothing
// after it should be interpreted as bucket content.
const noBucketsSentinel = 0xFFFFFFFF

// legacyImageIDWidth is the width of the imageId field in every format that
// predates the width-tagged header (versions 1, 2 and 3): those formats
// carry no width metadata at all, so the width can't be recovered from the
// file. Every 0.6.x build that shipped this format used the 64-bit imageId
// typedef (imgdb.h), which this reproduces unconditionally; the 32-bit
// build's narrower id never had a wide enough deployment to be worth
// guessing at.
const legacyImageIDWidth = 8

// decodeLegacy reads everything after the leading version word for a file
// whose header names a pre-current format, following imgdb.cpp's load()
// dispatch: version 1 (SRZ_V0_5_1) carries extra leading metadata that gets
// skipped and the real version re-read; versions 2 and 3 (SRZ_V0_6_0 and
// SRZ_V0_6_1) use load_stream_old's fixed native layout; version 8
// (SRZ_V0_7_0) uses the same width-tagged body as the current version, just
// possibly with different field widths.
//
// Endianness conversion (imgdb.cpp's CONV_ENDIAN/FLIP) is not reproduced:
// in the original it was a compile-time flag set only for big-endian target
// builds, never a per-file signal recoverable from the bytes themselves,
// and every build this package runs on is little-endian.
func decodeLegacy(f io.ReadSeeker, version byte, widths fieldWidths) ([]sig.ImgData, FileHeader, error) {
	if version == legacyV0_5_1 {
		inner := make([]byte, 16)
		if _, err := io.ReadFull(f, inner); err != nil {
			return nil, FileHeader{}, err
		}
		innerVersion := byte(binary.LittleEndian.Uint32(inner[0:4]) & 0xff)
		return decodeLegacy(f, innerVersion, widths)
	}

	if version < legacyV0_7_0 {
		sigs, err := readOldStreamBody(f, version)
		if err != nil {
			return nil, FileHeader{}, err
		}
		return sigs, FileHeader{Version: version, Count: len(sigs)}, nil
	}

	if version != legacyV0_7_0 {
		return nil, FileHeader{}, &ErrUnsupportedVersion{Version: version}
	}

	sigs, signaturesAt, err := readWidthTaggedBody(f, widths)
	if err != nil {
		return nil, FileHeader{}, err
	}
	return sigs, FileHeader{Version: version, Count: len(sigs), SignaturesAt: signaturesAt}, nil
}

// readWidthTaggedBody reads the SRZ_V0_7_0-and-later body: an image count
// and signature offset sized by widths, a bucket-size table that (like the
// current format) is a reserve hint only, an id table, and the signature
// records themselves at the given offset. This is exactly the current
// format's layout with widths that may not match currentWidths.
func readWidthTaggedBody(f io.ReadSeeker, widths fieldWidths) ([]sig.ImgData, int64, error) {
	lr := &legacyReader{r: f}
	numImg := lr.sized(widths.count)
	firstOff := lr.sized(widths.offset)

	lr.skip(int64(NumBuckets) * int64(widths.count))

	for i := uint64(0); i < numImg; i++ {
		lr.sized(widths.id) // id table is read for verification only upstream; skip here
	}
	if lr.err != nil {
		return nil, 0, lr.err
	}

	if _, err := f.Seek(int64(firstOff), io.SeekStart); err != nil {
		return nil, 0, err
	}

	sigs := make([]sig.ImgData, numImg)
	for i := range sigs {
		d, err := readLegacySignature(lr, widths.id, widths.res)
		if err != nil {
			return nil, 0, err
		}
		sigs[i] = d
	}
	return sigs, int64(firstOff), nil
}

func readLegacySignature(lr *legacyReader, idWidth, resWidth int) (sig.ImgData, error) {
	var d sig.ImgData
	d.ID = lr.sized(idWidth)
	for c := 0; c < 3; c++ {
		for k := 0; k < sig.NumCoeffs; k++ {
			d.Sig[c][k] = lr.i32()
		}
	}
	for c := 0; c < 3; c++ {
		d.AvgLF[c] = lr.f64()
	}
	d.Width = uint32(lr.sized(resWidth))
	d.Height = uint32(lr.sized(resWidth))
	if lr.err != nil {
		return sig.ImgData{}, lr.err
	}
	return d, nil
}

// readOldStreamBody reads a version 2 (SRZ_V0_6_0) or 3 (SRZ_V0_6_1) file,
// following load_stream_old: a native 4-byte bucket-size table (honoring
// the no-buckets sentinel on the first slot), a native 8-byte image count,
// then that many signature records. The original's fast-forward pre-pass
// over the bucket table exists only to reserve std::vector capacity before
// re-reading the same bytes for real; this package rebuilds buckets from
// signatures regardless, so it reads the table once and keeps going.
func readOldStreamBody(f io.ReadSeeker, version byte) ([]sig.ImgData, error) {
	if version != legacyV0_6_0 && version != legacyV0_6_1 {
		return nil, &ErrUnsupportedVersion{Version: version}
	}

	lr := &legacyReader{r: f}
	bucketsValid := true
	for i := 0; i < NumBuckets; i++ {
		sz := lr.u32()
		if sz == noBucketsSentinel {
			if i != 0 {
				return nil, fmt.Errorf("persist: no-bucket indicator too late in legacy file")
			}
			bucketsValid = false
			sz = lr.u32()
		}
		if bucketsValid {
			lr.skip(int64(sz) * legacyImageIDWidth)
		}
	}
	if lr.err != nil {
		return nil, lr.err
	}

	numImg := lr.u64()
	sigs := make([]sig.ImgData, numImg)
	for i := range sigs {
		var d sig.ImgData
		d.ID = lr.u64()
		// Versions 2 and 3 differ in the original only in whether the record
		// was read field-by-field or as one struct blob; both produce the
		// same byte layout sig.Decode already expects past the id field.
		for c := 0; c < 3; c++ {
			for k := 0; k < sig.NumCoeffs; k++ {
				d.Sig[c][k] = lr.i32()
			}
		}
		for c := 0; c < 3; c++ {
			d.AvgLF[c] = lr.f64()
		}
		d.Width = lr.u32()
		d.Height = lr.u32()
		sigs[i] = d
	}
	if lr.err != nil {
		return nil, lr.err
	}
	return sigs, nil
}

// legacyReader sequentially decodes little-endian fields from f, latching
// the first error so callers can chain reads without checking every one.
type legacyReader struct {
	r   io.Reader
	err error
}

func (lr *legacyReader) u32() uint32 {
	if lr.err != nil {
		return 0
	}
	var buf [4]byte
	if _, err := io.ReadFull(lr.r, buf[:]); err != nil {
		lr.err = err
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}

func (lr *legacyReader) u64() uint64 {
	if lr.err != nil {
		return 0
	}
	var buf [8]byte
	if _, err := io.ReadFull(lr.r, buf[:]); err != nil {
		lr.err = err
		return 0
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func (lr *legacyReader) i32() int32 { return int32(lr.u32()) }

func (lr *legacyReader) f64() float64 { return math.Float64frombits(lr.u64()) }

// sized reads an unsigned field whose on-disk width in bytes is given by a
// width-tagged header's count/offset/id fields.
func (lr *legacyReader) sized(width int) uint64 {
	if lr.err != nil {
		return 0
	}
	switch width {
	case 1:
		var b [1]byte
		if _, err := io.ReadFull(lr.r, b[:]); err != nil {
			lr.err = err
			return 0
		}
		return uint64(b[0])
	case 2:
		var buf [2]byte
		if _, err := io.ReadFull(lr.r, buf[:]); err != nil {
			lr.err = err
			return 0
		}
		return uint64(binary.LittleEndian.Uint16(buf[:]))
	case 4:
		return uint64(lr.u32())
	case 8:
		return lr.u64()
	default:
		lr.err = fmt.Errorf("persist: unsupported legacy field width %d", width)
		return 0
	}
}

func (lr *legacyReader) skip(n int64) {
	if lr.err != nil || n <= 0 {
		return
	}
	if seeker, ok := lr.r.(io.Seeker); ok {
		if _, err := seeker.Seek(n, io.SeekCurrent); err != nil {
			lr.err = err
		}
		return
	}
	if _, err := io.CopyN(io.Discard, lr.r, n); err != nil {
		lr.err = err
	}
}
