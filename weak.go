package refptr

// Weak observes a control block without owning the pointee. It contributes
// only to the weak count, which keeps the block's metadata alive after the
// pointee is destroyed, so liveness queries stay valid. Weak exposes no
// dereference: the only way to reach the object is promotion via Lock or
// FromWeak.
type Weak[T any] struct {
	target *T
	block  *controlBlock
}

// NewWeak observes s without extending the pointee's lifetime.
func NewWeak[T any](s Shared[T]) Weak[T] {
	if s.block != nil {
		s.block.addWeak()
	}

	return Weak[T]{target: s.target, block: s.block}
}

// Clone adds one weak observer sharing the control block.
func (w Weak[T]) Clone() Weak[T] {
	if w.block != nil {
		w.block.addWeak()
	}

	return Weak[T]{target: w.target, block: w.block}
}

// Move transfers the weak reference to the returned value and leaves w
// null.
func (w *Weak[T]) Move() Weak[T] {
	out := Weak[T]{target: w.target, block: w.block}
	w.target = nil
	w.block = nil

	return out
}

// Assign replaces w's reference with other's, acquiring before releasing.
// Assigning a reference w already holds is a no-op.
func (w *Weak[T]) Assign(other Weak[T]) {
	if w.target == other.target && w.block == other.block {
		return
	}

	if other.block != nil {
		other.block.addWeak()
	}
	w.Reset()

	w.target = other.target
	w.block = other.block
}

// Reset releases the weak reference and nulls the pointer.
func (w *Weak[T]) Reset() {
	if w.block != nil {
		if w.block.removeWeak() {
			releaseBlock(w.block)
		}
		w.block = nil
	}
	w.target = nil
}

// UseCount returns the pointee's live strong count, zero when null or
// expired.
func (w Weak[T]) UseCount() uint {
	if w.block == nil {
		return 0
	}

	return w.block.strongCount()
}

// Expired reports whether the pointee has been destroyed. True the moment
// the last strong owner resets, regardless of other weak observers.
func (w Weak[T]) Expired() bool {
	return w.UseCount() == 0
}

// Lock promotes to a Shared pointer, returning a null one when expired.
// This is the only safe route from a weak reference to a dereferenceable
// pointer.
func (w Weak[T]) Lock() Shared[T] {
	if w.Expired() {
		return Shared[T]{}
	}

	w.block.addStrong()

	return Shared[T]{target: w.target, block: w.block}
}

// IsNil reports whether w observes nothing at all (never attached, or
// reset). An expired Weak with a block is not nil.
func (w Weak[T]) IsNil() bool {
	return w.block == nil
}
