// Package allocator provides the raw memory primitives the pointer core
// sits on: allocate/deallocate plus typed construct-in-place and
// destroy-in-place helpers. Three allocators are available: a tracking
// system allocator, an arena (bump) allocator, and a size-classed pool
// allocator. The pointer core treats these as interchangeable collaborators
// behind the Allocator interface.
package allocator

import (
	"sync"
	"time"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/exp/constraints"

	"github.com/refptr/refptr/internal/errors"
)

// AllocatorKind selects an allocator implementation.
type AllocatorKind int

const (
	SystemAllocatorKind AllocatorKind = iota
	ArenaAllocatorKind
	PoolAllocatorKind
)

// Allocator is the raw allocation interface.
type Allocator interface {
	Alloc(size uintptr) unsafe.Pointer
	AllocAligned(size, align uintptr) unsafe.Pointer
	Free(ptr unsafe.Pointer)
	Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer
	TotalAllocated() uintptr
	TotalFreed() uintptr
	ActiveAllocations() int
	Stats() AllocatorStats
	Reset()
}

// AllocatorStats provides allocation statistics.
type AllocatorStats struct {
	TotalAllocated    uintptr
	TotalFreed        uintptr
	ActiveAllocations int
	PeakAllocations   int
	AllocationCount   uint64
	FreeCount         uint64
	BytesInUse        uintptr
}

// Config holds allocator configuration.
type Config struct {
	ArenaSize       uintptr
	PoolSizes       []uintptr
	MemoryLimit     uintptr
	AlignmentSize   uintptr
	EnableTracking  bool
	EnableDebug     bool
	EnableLeakCheck bool
	Logger          zerolog.Logger
}

// Option mutates a Config.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		ArenaSize:       64 * 1024 * 1024, // 64MB default arena
		PoolSizes:       []uintptr{8, 16, 32, 64, 128, 256, 512, 1024},
		MemoryLimit:     1024 * 1024 * 1024, // 1GB limit
		AlignmentSize:   8,
		EnableTracking:  true,
		EnableLeakCheck: true,
		Logger:          zerolog.Nop(),
	}
}

func WithTracking(enabled bool) Option {
	return func(c *Config) { c.EnableTracking = enabled }
}

func WithDebug(enabled bool) Option {
	return func(c *Config) { c.EnableDebug = enabled }
}

func WithArenaSize(size uintptr) Option {
	return func(c *Config) { c.ArenaSize = size }
}

func WithPoolSizes(sizes []uintptr) Option {
	return func(c *Config) { c.PoolSizes = sizes }
}

func WithMemoryLimit(limit uintptr) Option {
	return func(c *Config) { c.MemoryLimit = limit }
}

func WithLeakCheck(enabled bool) Option {
	return func(c *Config) { c.EnableLeakCheck = enabled }
}

func WithAlignment(alignment uintptr) Option {
	return func(c *Config) { c.AlignmentSize = alignment }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// New creates an allocator of the requested kind.
func New(kind AllocatorKind, options ...Option) (Allocator, error) {
	config := defaultConfig()
	for _, opt := range options {
		opt(config)
	}

	switch kind {
	case SystemAllocatorKind:
		return NewSystemAllocator(config), nil
	case ArenaAllocatorKind:
		return NewArenaAllocator(config.ArenaSize, config)
	case PoolAllocatorKind:
		return NewPoolAllocator(config.PoolSizes, config)
	default:
		return nil, errors.InvalidSize(uintptr(kind), "allocator kind")
	}
}

// AllocationInfo is the per-allocation tracking record.
type AllocationInfo struct {
	Size      uintptr
	Timestamp int64
}

// SystemAllocator wraps the Go heap. Raw pointers are handed out into
// byte-slice storage; the slices are pinned in allocatedSlices until Free so
// the collector cannot reclaim them underneath the caller.
type SystemAllocator struct {
	config            *Config
	activeAllocations map[unsafe.Pointer]*AllocationInfo
	allocatedSlices   map[unsafe.Pointer][]byte
	totalAllocated    uintptr
	totalFreed        uintptr
	allocationCount   uint64
	freeCount         uint64
	peakAllocations   int
	mu                sync.RWMutex
}

// NewSystemAllocator creates a new system allocator.
func NewSystemAllocator(config *Config) *SystemAllocator {
	if config == nil {
		config = defaultConfig()
	}

	return &SystemAllocator{
		config:            config,
		activeAllocations: make(map[unsafe.Pointer]*AllocationInfo),
		allocatedSlices:   make(map[unsafe.Pointer][]byte),
	}
}

// Alloc allocates size bytes at the configured default alignment.
func (sa *SystemAllocator) Alloc(size uintptr) unsafe.Pointer {
	return sa.AllocAligned(size, sa.config.AlignmentSize)
}

// AllocAligned allocates size bytes aligned to align.
func (sa *SystemAllocator) AllocAligned(size, align uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	if align == 0 {
		align = sa.config.AlignmentSize
	}

	alignedSize := alignUp(size, align)
	if alignedSize < size {
		return nil // overflow
	}

	if sa.config.MemoryLimit > 0 {
		sa.mu.RLock()
		inUse := sa.totalAllocated - sa.totalFreed
		sa.mu.RUnlock()

		if inUse+alignedSize > sa.config.MemoryLimit {
			return nil // out of memory
		}
	}

	// Over-allocate so the returned pointer can be slid up to the
	// requested alignment boundary.
	slice := make([]byte, alignedSize+align)
	base := uintptr(unsafe.Pointer(&slice[0]))
	offset := alignUp(base, align) - base
	ptr := unsafe.Pointer(&slice[offset])

	sa.mu.Lock()
	sa.allocatedSlices[ptr] = slice
	sa.activeAllocations[ptr] = &AllocationInfo{
		Size:      alignedSize,
		Timestamp: time.Now().UnixNano(),
	}
	if len(sa.activeAllocations) > sa.peakAllocations {
		sa.peakAllocations = len(sa.activeAllocations)
	}
	sa.totalAllocated += alignedSize
	sa.allocationCount++
	sa.mu.Unlock()

	if sa.config.EnableDebug {
		sa.config.Logger.Debug().
			Uint64("size", uint64(alignedSize)).
			Uint64("align", uint64(align)).
			Str("allocator", "system").
			Msg("alloc")
	}

	return ptr
}

// Free releases an allocation previously returned by Alloc.
func (sa *SystemAllocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	sa.mu.Lock()
	slice, known := sa.allocatedSlices[ptr]
	if known {
		delete(sa.allocatedSlices, ptr)
		freedSize := uintptr(len(slice))
		if info, exists := sa.activeAllocations[ptr]; exists {
			freedSize = info.Size
			delete(sa.activeAllocations, ptr)
		}
		sa.totalFreed += freedSize
		sa.freeCount++
	}
	sa.mu.Unlock()

	if known && sa.config.EnableDebug {
		sa.config.Logger.Debug().
			Str("allocator", "system").
			Msg("free")
	}
}

// Realloc resizes an allocation, preserving the smaller of the two sizes.
func (sa *SystemAllocator) Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	if ptr == nil {
		return sa.Alloc(newSize)
	}
	if newSize == 0 {
		sa.Free(ptr)
		return nil
	}

	sa.mu.RLock()
	oldSize := uintptr(0)
	if info, exists := sa.activeAllocations[ptr]; exists {
		oldSize = info.Size
	} else if slice, exists := sa.allocatedSlices[ptr]; exists {
		oldSize = uintptr(len(slice))
	}
	sa.mu.RUnlock()

	newPtr := sa.Alloc(newSize)
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

	sa.Free(ptr)

	return newPtr
}

// TotalAllocated returns total bytes allocated.
func (sa *SystemAllocator) TotalAllocated() uintptr {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	return sa.totalAllocated
}

// TotalFreed returns total bytes freed.
func (sa *SystemAllocator) TotalFreed() uintptr {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	return sa.totalFreed
}

// ActiveAllocations returns the number of live allocations.
func (sa *SystemAllocator) ActiveAllocations() int {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	return len(sa.allocatedSlices)
}

// Stats returns a snapshot of allocator statistics.
func (sa *SystemAllocator) Stats() AllocatorStats {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	return AllocatorStats{
		TotalAllocated:    sa.totalAllocated,
		TotalFreed:        sa.totalFreed,
		ActiveAllocations: len(sa.allocatedSlices),
		PeakAllocations:   sa.peakAllocations,
		AllocationCount:   sa.allocationCount,
		FreeCount:         sa.freeCount,
		BytesInUse:        sa.totalAllocated - sa.totalFreed,
	}
}

// Reset drops all tracking state and statistics.
func (sa *SystemAllocator) Reset() {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	sa.activeAllocations = make(map[unsafe.Pointer]*AllocationInfo)
	sa.allocatedSlices = make(map[unsafe.Pointer][]byte)
	sa.totalAllocated = 0
	sa.totalFreed = 0
	sa.allocationCount = 0
	sa.freeCount = 0
	sa.peakAllocations = 0
}

// CheckLeaks reports an error if leak checking is enabled and allocations
// are still active.
func (sa *SystemAllocator) CheckLeaks() error {
	if !sa.config.EnableLeakCheck {
		return nil
	}

	sa.mu.RLock()
	active := len(sa.allocatedSlices)
	sa.mu.RUnlock()

	if active > 0 {
		return errors.LeakDetected(active, "system allocator")
	}

	return nil
}

// Typed construct-in-place / destroy-in-place helpers.
//
// The payload type must be pointer-free: raw allocator memory is not
// scanned by the collector, so a Go pointer stored through it would not
// keep its referent alive.

// Construct allocates storage for a T from a and zero-constructs it in
// place.
func Construct[T any](a Allocator) *T {
	var zero T

	ptr := a.AllocAligned(unsafe.Sizeof(zero), unsafe.Alignof(zero))
	if ptr == nil {
		return nil
	}

	t := (*T)(ptr)
	*t = zero

	return t
}

// Destroy destroys a T in place and returns its storage to a.
func Destroy[T any](a Allocator, t *T) {
	if t == nil {
		return
	}

	var zero T
	*t = zero

	a.Free(unsafe.Pointer(t))
}

// alignUp rounds n up to the nearest multiple of alignment, which must be a
// power of two.
func alignUp[T constraints.Unsigned](n, alignment T) T {
	return (n + alignment - 1) &^ (alignment - 1)
}

// copyMemory copies size bytes from src to dst.
func copyMemory(dst, src unsafe.Pointer, size uintptr) {
	copy(unsafe.Slice((*byte)(dst), size), unsafe.Slice((*byte)(src), size))
}
