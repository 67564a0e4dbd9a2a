package sig

import (
	"encoding/binary"
	"math"
)

// RecordSize is the fixed on-disk/on-cache size of one ImgData record:
// id(8) + 3*40 signed positions(4 each) + 3 avglf(8 each) + width+height(4
// each), matching the packing fixed by spec.md §6.
const RecordSize = 8 + 3*NumCoeffs*4 + 3*8 + 4 + 4

// Encode writes d into buf, which must be at least RecordSize bytes.
func Encode(buf []byte, d ImgData) {
	binary.LittleEndian.PutUint64(buf[0:8], d.ID)
	off := 8
	for c := 0; c < 3; c++ {
		for k := 0; k < NumCoeffs; k++ {
			binary.LittleEndian.PutUint32(buf[off:off+4], uint32(d.Sig[c][k]))
			off += 4
		}
	}
	for c := 0; c < 3; c++ {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(d.AvgLF[c]))
		off += 8
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], d.Width)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], d.Height)
}

// Decode reads an ImgData out of buf, which must be at least RecordSize
// bytes.
func Decode(buf []byte) ImgData {
	var d ImgData
	d.ID = binary.LittleEndian.Uint64(buf[0:8])
	off := 8
	for c := 0; c < 3; c++ {
		for k := 0; k < NumCoeffs; k++ {
			d.Sig[c][k] = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
			off += 4
		}
	}
	for c := 0; c < 3; c++ {
		d.AvgLF[c] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	d.Width = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	d.Height = binary.LittleEndian.Uint32(buf[off : off+4])
	return d
}
