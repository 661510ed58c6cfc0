package allocator

import (
	"sync"
	"unsafe"

	"github.com/refptr/refptr/internal/errors"
)

// ArenaAllocator is a bump allocator over one contiguous region. Individual
// frees are no-ops; memory is reclaimed only by Reset or Close. On unix the
// region is anonymous mmap'd memory, elsewhere it falls back to the Go heap.
type ArenaAllocator struct {
	config         *Config
	buffer         []byte
	unmap          func() error
	current        uintptr
	size           uintptr
	allocations    uint64
	totalAllocated uintptr
	peakUsage      uintptr
	sizes          map[unsafe.Pointer]uintptr
	mu             sync.RWMutex
}

// NewArenaAllocator creates an arena of the given size.
func NewArenaAllocator(size uintptr, config *Config) (*ArenaAllocator, error) {
	if config == nil {
		config = defaultConfig()
	}
	if size == 0 {
		return nil, errors.InvalidSize(size, "arena size")
	}

	buffer, unmap, err := mapRegion(size)
	if err != nil {
		return nil, errors.OutOfMemory(size, "arena region")
	}

	return &ArenaAllocator{
		config: config,
		buffer: buffer,
		unmap:  unmap,
		size:   size,
		sizes:  make(map[unsafe.Pointer]uintptr),
	}, nil
}

// Alloc allocates size bytes at the configured default alignment.
func (aa *ArenaAllocator) Alloc(size uintptr) unsafe.Pointer {
	return aa.AllocAligned(size, aa.config.AlignmentSize)
}

// AllocAligned bumps the cursor to the next align boundary and reserves
// size bytes there.
func (aa *ArenaAllocator) AllocAligned(size, align uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	if align == 0 {
		align = aa.config.AlignmentSize
	}

	aa.mu.Lock()
	defer aa.mu.Unlock()

	if aa.buffer == nil {
		return nil // closed
	}

	base := uintptr(unsafe.Pointer(&aa.buffer[0]))
	start := alignUp(base+aa.current, align) - base
	alignedSize := alignUp(size, aa.config.AlignmentSize)
	if start+alignedSize > aa.size {
		return nil // out of arena space
	}

	ptr := unsafe.Pointer(&aa.buffer[start])
	aa.current = start + alignedSize
	aa.allocations++
	aa.totalAllocated += alignedSize
	if aa.config.EnableTracking {
		aa.sizes[ptr] = alignedSize
	}

	if aa.current > aa.peakUsage {
		aa.peakUsage = aa.current
	}

	if aa.config.EnableDebug {
		aa.config.Logger.Debug().
			Uint64("size", uint64(alignedSize)).
			Uint64("cursor", uint64(aa.current)).
			Str("allocator", "arena").
			Msg("alloc")
	}

	return ptr
}

// Free is a no-op: the arena cannot release individual allocations.
func (aa *ArenaAllocator) Free(ptr unsafe.Pointer) {}

// Realloc reserves a new region and copies the old contents over. The old
// region stays reserved until Reset.
func (aa *ArenaAllocator) Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	if ptr == nil {
		return aa.Alloc(newSize)
	}
	if newSize == 0 {
		return nil
	}

	aa.mu.RLock()
	oldSize := aa.sizes[ptr]
	aa.mu.RUnlock()

	newPtr := aa.Alloc(newSize)
	if newPtr == nil {
		return nil
	}

	copySize := oldSize
	if newSize < copySize {
		copySize = newSize
	}
	if copySize > 0 {
		copyMemory(newPtr, ptr, copySize)
	}

	return newPtr
}

// TotalAllocated returns total reserved bytes.
func (aa *ArenaAllocator) TotalAllocated() uintptr {
	aa.mu.RLock()
	defer aa.mu.RUnlock()

	return aa.totalAllocated
}

// TotalFreed returns total freed bytes, which is always zero for an arena.
func (aa *ArenaAllocator) TotalFreed() uintptr {
	return 0
}

// ActiveAllocations returns the number of allocations made since the last
// Reset.
func (aa *ArenaAllocator) ActiveAllocations() int {
	aa.mu.RLock()
	defer aa.mu.RUnlock()

	return int(aa.allocations)
}

// Stats returns a snapshot of arena statistics.
func (aa *ArenaAllocator) Stats() AllocatorStats {
	aa.mu.RLock()
	defer aa.mu.RUnlock()

	return AllocatorStats{
		TotalAllocated:    aa.totalAllocated,
		ActiveAllocations: int(aa.allocations),
		AllocationCount:   aa.allocations,
		BytesInUse:        aa.current,
	}
}

// Reset rewinds the arena cursor, invalidating every allocation at once.
func (aa *ArenaAllocator) Reset() {
	aa.mu.Lock()
	defer aa.mu.Unlock()

	aa.current = 0
	aa.allocations = 0
	aa.totalAllocated = 0
	aa.sizes = make(map[unsafe.Pointer]uintptr)
}

// Remaining returns the bytes still available before the arena is exhausted.
func (aa *ArenaAllocator) Remaining() uintptr {
	aa.mu.RLock()
	defer aa.mu.RUnlock()

	return aa.size - aa.current
}

// PeakUsage returns the highest cursor position reached.
func (aa *ArenaAllocator) PeakUsage() uintptr {
	aa.mu.RLock()
	defer aa.mu.RUnlock()

	return aa.peakUsage
}

// Close releases the backing region. The arena must not be used afterwards.
func (aa *ArenaAllocator) Close() error {
	aa.mu.Lock()
	defer aa.mu.Unlock()

	aa.buffer = nil
	aa.current = 0
	if aa.unmap != nil {
		unmap := aa.unmap
		aa.unmap = nil

		return unmap()
	}

	return nil
}
