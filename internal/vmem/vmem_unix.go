//go:build linux || darwin || freebsd || netbsd || openbsd

package vmem

import (
	"errors"

	"golang.org/x/sys/unix"
)

// PageSize returns the OS page size.
func PageSize() int { return unix.Getpagesize() }

func reserve(n int) ([]byte, error) {
	return unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func release(data []byte) error {
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
