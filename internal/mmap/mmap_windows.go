//go:build windows

package mmap

import (
	"os"
	"syscall"
	"unsafe"
)

func mmap(f *os.File, offset int64, size int) (full, window []byte, err error) {
	h, err := syscall.CreateFileMapping(syscall.Handle(f.Fd()), nil, syscall.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return nil, nil, err
	}
	defer syscall.CloseHandle(h)

	hi := uint32(offset >> 32)
	lo := uint32(offset & 0xFFFFFFFF)

	addr, err := syscall.MapViewOfFile(h, syscall.FILE_MAP_READ, hi, lo, uintptr(size))
	if err != nil {
		return nil, nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return data, data, nil
}

func munmap(full []byte) error {
	if len(full) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&full[0]))
	return syscall.UnmapViewOfFile(addr)
}

func advise(data []byte, pattern AccessPattern) error {
	return nil // no-op on Windows
}
