package bucket

import "encoding/binary"

// MutableFlushThreshold is the tail size, in entries, at which a mutable
// bucket's tail is paged out to the scratch file (spec.md §4.2).
const MutableFlushThreshold = 128

const idEntrySize = 8 // one uint64 image id per entry

type page struct {
	offset int64
	count  int
}

// MutableBucket is one (channel, sign, magnitude) bucket in normal/alter
// mode: an ordered sequence of image IDs, insertion order preserved, split
// between frozen pages on the scratch file and a small in-memory tail.
type MutableBucket struct {
	store *Scratch
	pages []page
	tail  []uint64
}

func newMutableBucket(store *Scratch) *MutableBucket {
	return &MutableBucket{store: store}
}

// Add appends id, preserving insertion order.
func (b *MutableBucket) Add(id uint64) error {
	b.tail = append(b.tail, id)
	if len(b.tail) >= MutableFlushThreshold {
		return b.flush()
	}
	return nil
}

func (b *MutableBucket) flush() error {
	buf := make([]byte, len(b.tail)*idEntrySize)
	for i, id := range b.tail {
		binary.LittleEndian.PutUint64(buf[i*idEntrySize:], id)
	}
	off, err := b.store.Grow(len(buf))
	if err != nil {
		return err
	}
	if err := b.store.WriteAt(buf, off); err != nil {
		return err
	}
	b.pages = append(b.pages, page{offset: off, count: len(b.tail)})
	b.tail = b.tail[:0]
	return nil
}

// Remove deletes the first (and expected only) occurrence of id. It reports
// whether id was found.
func (b *MutableBucket) Remove(id uint64) (bool, error) {
	for i, v := range b.tail {
		if v == id {
			b.tail = append(b.tail[:i], b.tail[i+1:]...)
			return true, nil
		}
	}

	for pi := range b.pages {
		p := &b.pages[pi]
		buf := make([]byte, p.count*idEntrySize)
		if _, err := b.store.ReadAt(buf, p.offset); err != nil {
			return false, err
		}
		for i := 0; i < p.count; i++ {
			if binary.LittleEndian.Uint64(buf[i*idEntrySize:]) == id {
				copy(buf[i*idEntrySize:], buf[(i+1)*idEntrySize:p.count*idEntrySize])
				p.count--
				if err := b.store.WriteAt(buf[:p.count*idEntrySize], p.offset); err != nil {
					return false, err
				}
				return true, nil
			}
		}
	}
	return false, nil
}

// Len returns the total number of entries across pages and tail.
func (b *MutableBucket) Len() int {
	n := len(b.tail)
	for _, p := range b.pages {
		n += p.count
	}
	return n
}

// Each calls fn for every id in insertion order (pages, then tail).
func (b *MutableBucket) Each(fn func(id uint64)) error {
	for _, p := range b.pages {
		if p.count == 0 {
			continue
		}
		buf := make([]byte, p.count*idEntrySize)
		if _, err := b.store.ReadAt(buf, p.offset); err != nil {
			return err
		}
		for i := 0; i < p.count; i++ {
			fn(binary.LittleEndian.Uint64(buf[i*idEntrySize:]))
		}
	}
	for _, id := range b.tail {
		fn(id)
	}
	return nil
}

// MutableSet is the full 3x2x16384 bucket array for normal/alter mode.
type MutableSet struct {
	store   *Scratch
	buckets [NumBuckets]*MutableBucket
}

// NewMutableSet creates an empty mutable bucket set backed by store.
func NewMutableSet(store *Scratch) *MutableSet {
	return &MutableSet{store: store}
}

func (s *MutableSet) at(c Coord) *MutableBucket {
	idx := c.Index()
	if s.buckets[idx] == nil {
		s.buckets[idx] = newMutableBucket(s.store)
	}
	return s.buckets[idx]
}

// Bucket returns the bucket at c, or nil if it has never been written to
// (callers must treat a nil bucket as empty).
func (s *MutableSet) Bucket(c Coord) *MutableBucket {
	return s.buckets[c.Index()]
}

// Add inserts id into every bucket named by sig for the active channel set
// (all three channels, or just channel 0 if grayscale is true).
func (s *MutableSet) Add(sig [3][40]int32, id uint64, grayscale bool) error {
	channels := 3
	if grayscale {
		channels = 1
	}
	for c := 0; c < channels; c++ {
		for k := 0; k < 40; k++ {
			if err := s.at(FromSigned(c, sig[c][k])).Add(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Remove deletes id from every bucket its signature would have populated.
func (s *MutableSet) Remove(sig [3][40]int32, id uint64, grayscale bool) error {
	channels := 3
	if grayscale {
		channels = 1
	}
	for c := 0; c < channels; c++ {
		for k := 0; k < 40; k++ {
			b := s.Bucket(FromSigned(c, sig[c][k]))
			if b == nil {
				continue
			}
			if _, err := b.Remove(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sizes returns the entry count of every bucket in index order, for
// coeff_stats and for the informational bucket-size table written on save.
func (s *MutableSet) Sizes() []uint32 {
	sizes := make([]uint32, NumBuckets)
	for i, b := range s.buckets {
		if b != nil {
			sizes[i] = uint32(b.Len())
		}
	}
	return sizes
}

// Close releases the shared scratch file.
func (s *MutableSet) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
