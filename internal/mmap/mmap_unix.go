//go:build !windows

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

var pageSize = os.Getpagesize()

// mmap maps size bytes of f starting at offset. offset is rounded down to the
// nearest page boundary as required by mmap(2); the returned window is the
// caller's requested range re-sliced out of the full aligned mapping, which
// must be retained so Munmap later receives the exact region the OS returned.
func mmap(f *os.File, offset int64, size int) (full, window []byte, err error) {
	aligned := offset - offset%int64(pageSize)
	pad := int(offset - aligned)

	data, err := unix.Mmap(int(f.Fd()), aligned, size+pad, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, data[pad : pad+size], nil
}

func munmap(full []byte) error {
	return unix.Munmap(full)
}

func advise(data []byte, pattern AccessPattern) error {
	var advice int
	switch pattern {
	case AccessSequential:
		advice = unix.MADV_SEQUENTIAL
	case AccessRandom:
		advice = unix.MADV_RANDOM
	default:
		advice = unix.MADV_NORMAL
	}
	err := unix.Madvise(data, advice)
	if err == unix.EINVAL {
		return nil
	}
	return err
}
