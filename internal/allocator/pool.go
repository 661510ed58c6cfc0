package allocator

import (
	"sync"
	"unsafe"

	"github.com/refptr/refptr/internal/errors"
)

// PoolAllocator serves fixed-size classes from free lists carved out of
// larger chunks. Requests that fit no class fall through to a system
// allocator.
type PoolAllocator struct {
	mu       sync.RWMutex
	config   *Config
	pools    map[uintptr]*pool
	fallback *SystemAllocator
	stats    poolCounters
}

// pool is a free list of blocks of one size class.
type pool struct {
	mu        sync.Mutex
	size      uintptr
	chunks    [][]byte
	freeList  []unsafe.Pointer
	chunkSize uintptr
	allocated uint64
	freed     uint64
}

type poolCounters struct {
	totalAllocated  uintptr
	totalFreed      uintptr
	allocationCount uint64
	freeCount       uint64
	hits            uint64
	misses          uint64
}

// NewPoolAllocator creates pools for each of the given size classes.
func NewPoolAllocator(poolSizes []uintptr, config *Config) (*PoolAllocator, error) {
	if config == nil {
		config = defaultConfig()
	}
	if len(poolSizes) == 0 {
		return nil, errors.InvalidSize(0, "pool size classes")
	}

	pools := make(map[uintptr]*pool)
	for _, size := range poolSizes {
		alignedSize := alignUp(size, config.AlignmentSize)
		pools[alignedSize] = &pool{
			size:      alignedSize,
			chunkSize: 64 * 1024, // 64KB chunks
		}
	}

	return &PoolAllocator{
		config:   config,
		pools:    pools,
		fallback: NewSystemAllocator(config),
	}, nil
}

// Alloc allocates from the best-fit pool, or the fallback when no class
// fits.
func (pa *PoolAllocator) Alloc(size uintptr) unsafe.Pointer {
	return pa.AllocAligned(size, pa.config.AlignmentSize)
}

// AllocAligned allocates size bytes. Pool blocks are aligned to their size
// class; requests with stricter alignment go to the fallback.
func (pa *PoolAllocator) AllocAligned(size, align uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	alignedSize := alignUp(size, pa.config.AlignmentSize)
	if align > pa.config.AlignmentSize {
		alignedSize = alignUp(size, align)
	}

	poolSize := pa.findBestPool(alignedSize)
	if poolSize == 0 {
		pa.mu.Lock()
		pa.stats.misses++
		pa.mu.Unlock()

		return pa.fallback.AllocAligned(size, align)
	}

	pa.mu.RLock()
	p := pa.pools[poolSize]
	pa.mu.RUnlock()

	ptr := p.alloc()
	if ptr != nil {
		pa.mu.Lock()
		pa.stats.hits++
		pa.stats.allocationCount++
		pa.stats.totalAllocated += poolSize
		pa.mu.Unlock()

		if pa.config.EnableDebug {
			pa.config.Logger.Debug().
				Uint64("size", uint64(poolSize)).
				Str("allocator", "pool").
				Msg("alloc")
		}
	}

	return ptr
}

// Free returns a block to the pool it came from, or to the fallback.
func (pa *PoolAllocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	poolSize := pa.findPoolForPointer(ptr)
	if poolSize == 0 {
		pa.fallback.Free(ptr)
		return
	}

	pa.mu.RLock()
	p := pa.pools[poolSize]
	pa.mu.RUnlock()

	p.free(ptr)

	pa.mu.Lock()
	pa.stats.freeCount++
	pa.stats.totalFreed += poolSize
	pa.mu.Unlock()
}

// Realloc reallocates, keeping the block in place when the size class does
// not change.
func (pa *PoolAllocator) Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	if ptr == nil {
		return pa.Alloc(newSize)
	}
	if newSize == 0 {
		pa.Free(ptr)
		return nil
	}

	oldPoolSize := pa.findPoolForPointer(ptr)
	newAlignedSize := alignUp(newSize, pa.config.AlignmentSize)
	newPoolSize := pa.findBestPool(newAlignedSize)

	if oldPoolSize != 0 && oldPoolSize == newPoolSize {
		return ptr
	}

	newPtr := pa.Alloc(newSize)
	if newPtr == nil {
		return nil
	}

	copySize := oldPoolSize
	if newSize < copySize {
		copySize = newSize
	}
	if copySize > 0 {
		copyMemory(newPtr, ptr, copySize)
	}

	pa.Free(ptr)

	return newPtr
}

// TotalAllocated returns total allocated bytes across pools and fallback.
func (pa *PoolAllocator) TotalAllocated() uintptr {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	return pa.stats.totalAllocated + pa.fallback.TotalAllocated()
}

// TotalFreed returns total freed bytes across pools and fallback.
func (pa *PoolAllocator) TotalFreed() uintptr {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	return pa.stats.totalFreed + pa.fallback.TotalFreed()
}

// ActiveAllocations returns the number of live allocations.
func (pa *PoolAllocator) ActiveAllocations() int {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	return int(pa.stats.allocationCount-pa.stats.freeCount) + pa.fallback.ActiveAllocations()
}

// Stats returns combined pool and fallback statistics.
func (pa *PoolAllocator) Stats() AllocatorStats {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	fallbackStats := pa.fallback.Stats()

	return AllocatorStats{
		TotalAllocated:    pa.stats.totalAllocated + fallbackStats.TotalAllocated,
		TotalFreed:        pa.stats.totalFreed + fallbackStats.TotalFreed,
		ActiveAllocations: int(pa.stats.allocationCount-pa.stats.freeCount) + fallbackStats.ActiveAllocations,
		PeakAllocations:   fallbackStats.PeakAllocations,
		AllocationCount:   pa.stats.allocationCount + fallbackStats.AllocationCount,
		FreeCount:         pa.stats.freeCount + fallbackStats.FreeCount,
		BytesInUse:        (pa.stats.totalAllocated - pa.stats.totalFreed) + fallbackStats.BytesInUse,
	}
}

// Reset clears every pool and the fallback.
func (pa *PoolAllocator) Reset() {
	pa.mu.Lock()
	defer pa.mu.Unlock()

	for _, p := range pa.pools {
		p.reset()
	}

	pa.stats = poolCounters{}
	pa.fallback.Reset()
}

// HitRate returns the fraction of allocations served from a pool.
func (pa *PoolAllocator) HitRate() float64 {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	total := pa.stats.hits + pa.stats.misses
	if total == 0 {
		return 0
	}

	return float64(pa.stats.hits) / float64(total)
}

// findBestPool finds the smallest size class that fits size.
func (pa *PoolAllocator) findBestPool(size uintptr) uintptr {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	var bestSize uintptr
	for poolSize := range pa.pools {
		if poolSize >= size {
			if bestSize == 0 || poolSize < bestSize {
				bestSize = poolSize
			}
		}
	}

	return bestSize
}

// findPoolForPointer finds the size class whose chunks contain ptr.
func (pa *PoolAllocator) findPoolForPointer(ptr unsafe.Pointer) uintptr {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	for poolSize, p := range pa.pools {
		if p.containsPointer(ptr) {
			return poolSize
		}
	}

	return 0
}

func (p *pool) alloc() unsafe.Pointer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeList) == 0 {
		p.allocateChunk()
	}
	if len(p.freeList) == 0 {
		return nil
	}

	ptr := p.freeList[len(p.freeList)-1]
	p.freeList = p.freeList[:len(p.freeList)-1]
	p.allocated++

	return ptr
}

func (p *pool) free(ptr unsafe.Pointer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.freeList = append(p.freeList, ptr)
	p.freed++
}

// allocateChunk carves a new chunk into free-list blocks.
func (p *pool) allocateChunk() {
	blocks := p.chunkSize / p.size
	if blocks == 0 {
		blocks = 1
	}

	chunk := make([]byte, blocks*p.size)
	p.chunks = append(p.chunks, chunk)

	for i := uintptr(0); i < blocks; i++ {
		p.freeList = append(p.freeList, unsafe.Pointer(&chunk[i*p.size]))
	}
}

func (p *pool) containsPointer(ptr unsafe.Pointer) bool {
	addr := uintptr(ptr)
	for _, chunk := range p.chunks {
		start := uintptr(unsafe.Pointer(&chunk[0]))
		if addr >= start && addr < start+uintptr(len(chunk)) {
			return true
		}
	}

	return false
}

func (p *pool) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.chunks = nil
	p.freeList = nil
	p.allocated = 0
	p.freed = 0
}
