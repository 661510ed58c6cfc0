//go:build !unix

package allocator

// mapRegion falls back to the Go heap on platforms without mmap support.
func mapRegion(size uintptr) ([]byte, func() error, error) {
	return make([]byte, size), func() error { return nil }, nil
}
