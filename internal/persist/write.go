package persist

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/r888888888/iqdb/internal/sig"
)

// SigAt resolves a dense catalog index to its signature, in the order the
// index table lists ids.
type SigAt func(index int) (sig.ImgData, error)

// Save writes a full database file for ids (in the order they should be
// assigned catalog indices) and their signatures, plus the informational
// bucket-size table. The write is atomic: it lands in a temp file in dir(path)
// and is renamed into place only once every byte is flushed and synced,
// matching the save contract of spec.md §7 (a failed save must never
// corrupt an existing file).
func Save(path string, ids []uint64, sigAt SigAt, bucketSizes []uint32) error {
	if len(bucketSizes) != NumBuckets {
		return fmt.Errorf("persist: bucketSizes must have %d entries, got %d", NumBuckets, len(bucketSizes))
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()
	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeAll(buf, ids, sigAt, bucketSizes); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	tmpName = ""
	return nil
}

func writeAll(w io.Writer, ids []uint64, sigAt SigAt, bucketSizes []uint32) error {
	l := computeLayout(len(ids), sig.RecordSize)

	header := make([]byte, headerSize+countFieldSize+offsetFieldSize)
	binary.LittleEndian.PutUint32(header[0:4], encodeHeader(CurrentVersion, currentWidths))
	binary.LittleEndian.PutUint32(header[4:8], uint32(l.count))
	binary.LittleEndian.PutUint64(header[8:16], uint64(l.signaturesAt))
	if _, err := w.Write(header); err != nil {
		return err
	}

	sizeBuf := make([]byte, bucketSizeEntry)
	for _, n := range bucketSizes {
		binary.LittleEndian.PutUint32(sizeBuf, n)
		if _, err := w.Write(sizeBuf); err != nil {
			return err
		}
	}

	idBuf := make([]byte, idEntrySize)
	for _, id := range ids {
		binary.LittleEndian.PutUint64(idBuf, id)
		if _, err := w.Write(idBuf); err != nil {
			return err
		}
	}
	zero := make([]byte, idEntrySize)
	for i := 0; i < IDTablePad; i++ {
		if _, err := w.Write(zero); err != nil {
			return err
		}
	}

	recBuf := make([]byte, sig.RecordSize)
	for i := range ids {
		d, err := sigAt(i)
		if err != nil {
			return err
		}
		sig.Encode(recBuf, d)
		if _, err := w.Write(recBuf); err != nil {
			return err
		}
	}
	return nil
}
