package persist

import "github.com/r888888888/iqdb/internal/bucket"

// NumBuckets mirrors bucket.NumBuckets; the bucket-size table always has
// exactly this many entries regardless of how many are actually populated.
const NumBuckets = bucket.NumBuckets

// IDTablePad is the number of extra, zero-valued id slots written after the
// live entries. Every save writes the same padding; nothing writes into it
// afterward (alter mode rewrites the whole file on save), and a reload only
// ever reads the first Count entries.
const IDTablePad = 1024

const (
	headerSize      = 4
	countFieldSize  = 4
	offsetFieldSize = 8
	bucketSizeEntry = 4
	idEntrySize     = 8
)

// layout describes the byte offsets of each section of a database file,
// computed once from a live entry count so Save and Load agree on it.
type layout struct {
	count           int
	bucketsAt       int64
	idTableAt       int64
	idTableCap      int
	signaturesAt    int64
	fileSize        int64
	signatureRecord int
}

func computeLayout(count, signatureRecordSize int) layout {
	l := layout{count: count, signatureRecord: signatureRecordSize}
	l.bucketsAt = headerSize + countFieldSize + offsetFieldSize
	l.idTableAt = l.bucketsAt + int64(NumBuckets)*bucketSizeEntry
	l.idTableCap = count + IDTablePad
	l.signaturesAt = l.idTableAt + int64(l.idTableCap)*idEntrySize
	l.fileSize = l.signaturesAt + int64(count)*int64(signatureRecordSize)
	return l
}
