//go:build unix

package allocator

import "golang.org/x/sys/unix"

// mapRegion reserves an anonymous private mapping of the given size. The
// returned release function unmaps it.
func mapRegion(size uintptr) ([]byte, func() error, error) {
	buf, err := unix.Mmap(-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}

	return buf, func() error { return unix.Munmap(buf) }, nil
}
