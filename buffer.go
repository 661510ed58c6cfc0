package refptr

import (
	"unsafe"

	"github.com/refptr/refptr/internal/allocator"
)

// Raw-buffer adoption: the tie between the pointer types and the raw
// allocator primitives. The buffers below are plain bytes carved out of an
// allocator; the installed delete policy returns the memory to it when
// ownership ends. The allocator outliving the pointers is the caller's
// obligation.

// NewSharedBuffer adopts n bytes from a into a shared byte slice. The
// memory is freed when the last strong reference resets. Returns a null
// pointer when the allocation fails.
func NewSharedBuffer(a allocator.Allocator, n uintptr) Shared[[]byte] {
	ptr := a.Alloc(n)
	if ptr == nil {
		return Shared[[]byte]{}
	}

	buf := unsafe.Slice((*byte)(ptr), n)

	return NewSharedWith(&buf, DeleteFunc[[]byte](func(b *[]byte) {
		a.Free(unsafe.Pointer(unsafe.SliceData(*b)))
		*b = nil
	}))
}

// NewUniqueBuffer adopts n bytes from a into a sole-owner byte slice with a
// bulk delete policy. Returns a null pointer when the allocation fails.
func NewUniqueBuffer(a allocator.Allocator, n uintptr) UniqueSlice[byte, SliceDeleteFunc[byte]] {
	ptr := a.Alloc(n)
	if ptr == nil {
		return UniqueSlice[byte, SliceDeleteFunc[byte]]{}
	}

	buf := unsafe.Slice((*byte)(ptr), n)

	return NewUniqueSliceWith(buf, SliceDeleteFunc[byte](func(b []byte) {
		a.Free(unsafe.Pointer(unsafe.SliceData(b)))
	}))
}
