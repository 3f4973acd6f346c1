//go:build !(linux || darwin || freebsd || netbsd || openbsd || windows)

package vmem

const fallbackPageSize = 4096

// PageSize returns the page granularity used when the OS offers no mapping API.
func PageSize() int { return fallbackPageSize }

// reserve falls back to the Go heap when anonymous mappings are not available.
func reserve(n int) ([]byte, error) {
	return make([]byte, n), nil
}

func release([]byte) error { return nil }
