package refptr

import "github.com/refptr/refptr/internal/errors"

// Shared is a multi-owner pointer. Every live Shared holding a control
// block counts as one strong owner; the pointee is destroyed when the last
// one resets. Copies are made explicitly with Clone, transfers with Move;
// a Shared that goes out of scope without Reset keeps its reference (and
// the pointee) alive for good.
//
// The dereference target and the owned object may differ: see Alias.
type Shared[T any] struct {
	target *T
	block  *controlBlock
}

// NewShared adopts target into a fresh referencing control block with the
// default delete policy. A nil target yields a null pointer.
func NewShared[T any](target *T) Shared[T] {
	return NewSharedWith[T](target, DefaultDelete[T]{})
}

// NewSharedWith adopts target with a custom delete policy.
func NewSharedWith[T any](target *T, del Deleter[T]) Shared[T] {
	if target == nil {
		return Shared[T]{}
	}

	b := newRefBlock(target, del)

	return Shared[T]{target: target, block: &b.controlBlock}
}

// MakeShared constructs the object inside its control block: one allocation
// covers metadata and value both. Prefer it whenever no pre-existing
// address is being adopted.
func MakeShared[T any](v T) Shared[T] {
	b := newEmbedBlock(v)

	return Shared[T]{target: &b.value, block: &b.controlBlock}
}

// Alias returns a pointer that shares owner's control block (one more
// strong owner) but dereferences to target. What keeps the object alive and
// what is read through the pointer are decoupled: the typical use is
// pointing at a sub-object while the root object's count governs both.
func Alias[T, U any](owner Shared[U], target *T) Shared[T] {
	if owner.block != nil {
		owner.block.addStrong()
	}

	return Shared[T]{target: target, block: owner.block}
}

// FromWeak promotes a weak pointer to a strong one. If the pointee is
// already gone it fails with the expired-reference error; the error is for
// the immediate caller, never converted to a null result here. Lock is the
// degrading alternative.
func FromWeak[T any](w Weak[T]) (Shared[T], error) {
	if w.Expired() {
		return Shared[T]{}, errors.ExpiredReference("FromWeak")
	}

	w.block.addStrong()

	return Shared[T]{target: w.target, block: w.block}, nil
}

// Clone adds one strong owner sharing the control block.
func (s Shared[T]) Clone() Shared[T] {
	if s.block != nil {
		s.block.addStrong()
	}

	return Shared[T]{target: s.target, block: s.block}
}

// Move transfers ownership to the returned value and leaves s null. The
// net reference count does not change.
func (s *Shared[T]) Move() Shared[T] {
	out := Shared[T]{target: s.target, block: s.block}
	s.target = nil
	s.block = nil

	return out
}

// Assign replaces s's reference with other's, acquiring the new reference
// before releasing the old one. Assigning a reference s already holds is a
// no-op; identity is the stored address, never inferred from the control
// block, so aliases of one object count as distinct references.
func (s *Shared[T]) Assign(other Shared[T]) {
	if s.target == other.target && s.block == other.block {
		return
	}

	if other.block != nil {
		other.block.addStrong()
	}
	s.Reset()

	s.target = other.target
	s.block = other.block
}

// Reset releases the current reference and nulls the pointer. The pointee
// is destroyed if this was the last strong owner.
func (s *Shared[T]) Reset() {
	if s.block != nil {
		if s.block.removeStrong() {
			releaseBlock(s.block)
		}
		s.block = nil
	}
	s.target = nil
}

// ResetTo replaces the managed object with target under a fresh referencing
// control block and the default delete policy. Resetting to the address
// already held is a no-op.
func (s *Shared[T]) ResetTo(target *T) {
	if target == s.target {
		return
	}

	s.Reset()
	if target != nil {
		b := newRefBlock(target, DefaultDelete[T]{})
		s.target = target
		s.block = &b.controlBlock
	}
}

// Swap exchanges the references held by s and other.
func (s *Shared[T]) Swap(other *Shared[T]) {
	s.target, other.target = other.target, s.target
	s.block, other.block = other.block, s.block
}

// Get returns the dereference target, nil for a null pointer. No check is
// made on use; dereferencing nil is the caller's contract violation.
func (s Shared[T]) Get() *T {
	return s.target
}

// UseCount returns the live strong count, zero for a null pointer.
func (s Shared[T]) UseCount() uint {
	if s.block == nil {
		return 0
	}

	return s.block.strongCount()
}

// IsNil reports whether the pointer dereferences to nothing.
func (s Shared[T]) IsNil() bool {
	return s.target == nil
}

// Equal compares dereference targets, not control blocks: two aliases of
// one object with different targets are unequal.
func (s Shared[T]) Equal(other Shared[T]) bool {
	return s.target == other.target
}
