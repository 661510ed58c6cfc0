package refptr

import (
	"unsafe"

	"github.com/refptr/refptr/internal/container/cpair"
)

// Unique is a sole-owner pointer: no control block, no sharing, and no
// Clone. The target and its delete policy live in a compressed pair, so a
// stateless policy (the default) costs no storage and the pointer is one
// word. Transfer ownership with Move or Adopt; copying the struct by value
// is a contract violation.
type Unique[T any, D Deleter[T]] struct {
	pair cpair.Pair[*T, D]
}

// NewUnique adopts target with the default delete policy.
func NewUnique[T any](target *T) Unique[T, DefaultDelete[T]] {
	return Unique[T, DefaultDelete[T]]{pair: cpair.MakeFirst[*T, DefaultDelete[T]](target)}
}

// NewUniqueWith adopts target with a custom delete policy.
func NewUniqueWith[T any, D Deleter[T]](target *T, del D) Unique[T, D] {
	return Unique[T, D]{pair: cpair.MakePair(target, del)}
}

// Release relinquishes ownership and returns the target without running
// the delete policy. u is left null.
func (u *Unique[T, D]) Release() *T {
	target := *u.pair.First()
	*u.pair.First() = nil

	return target
}

// Reset adopts target, then runs the delete policy on the previously held
// address. The swap happens first so a policy that reaches back through u
// observes the new value.
func (u *Unique[T, D]) Reset(target *T) {
	old := *u.pair.First()
	*u.pair.First() = target
	if old != nil {
		del := *u.pair.Second()
		del.Delete(old)
	}
}

// Adopt moves other's target and policy into u, resetting whatever u held.
// Adopting the target u already holds (including self-adoption) is a no-op.
func (u *Unique[T, D]) Adopt(other *Unique[T, D]) {
	if other.Get() == u.Get() {
		return
	}

	u.Reset(other.Release())
	*u.pair.Second() = *other.pair.Second()
}

// Move transfers ownership to the returned value and leaves u null.
func (u *Unique[T, D]) Move() Unique[T, D] {
	return Unique[T, D]{pair: cpair.MakePair(u.Release(), *u.pair.Second())}
}

// Swap exchanges target and delete policy with other.
func (u *Unique[T, D]) Swap(other *Unique[T, D]) {
	*u.pair.First(), *other.pair.First() = *other.pair.First(), *u.pair.First()
	*u.pair.Second(), *other.pair.Second() = *other.pair.Second(), *u.pair.Second()
}

// Get returns the target, nil when u owns nothing.
func (u *Unique[T, D]) Get() *T {
	return *u.pair.First()
}

// Deleter returns the delete policy slot.
func (u *Unique[T, D]) Deleter() *D {
	return u.pair.Second()
}

// IsNil reports whether u owns nothing.
func (u *Unique[T, D]) IsNil() bool {
	return *u.pair.First() == nil
}

// UniqueSlice is the array form of Unique: sole ownership of a slice with
// indexed element access and an array-appropriate delete policy.
type UniqueSlice[T any, D SliceDeleter[T]] struct {
	pair cpair.Pair[[]T, D]
}

// NewUniqueSlice adopts elems with the default element-wise delete policy.
func NewUniqueSlice[T any](elems []T) UniqueSlice[T, DefaultSliceDelete[T]] {
	return UniqueSlice[T, DefaultSliceDelete[T]]{pair: cpair.MakeFirst[[]T, DefaultSliceDelete[T]](elems)}
}

// NewUniqueSliceWith adopts elems with a custom delete policy, which must
// match how the array was allocated (element-wise or bulk).
func NewUniqueSliceWith[T any, D SliceDeleter[T]](elems []T, del D) UniqueSlice[T, D] {
	return UniqueSlice[T, D]{pair: cpair.MakePair(elems, del)}
}

// At returns the address of element i. Bounds are not checked beyond the
// runtime's own slice panic.
func (u *UniqueSlice[T, D]) At(i int) *T {
	return &(*u.pair.First())[i]
}

// Len returns the element count, zero when u owns nothing.
func (u *UniqueSlice[T, D]) Len() int {
	return len(*u.pair.First())
}

// Release relinquishes ownership and returns the slice without running the
// delete policy.
func (u *UniqueSlice[T, D]) Release() []T {
	elems := *u.pair.First()
	*u.pair.First() = nil

	return elems
}

// Reset adopts elems, then runs the delete policy on the previously held
// slice, in that order.
func (u *UniqueSlice[T, D]) Reset(elems []T) {
	old := *u.pair.First()
	*u.pair.First() = elems
	if old != nil {
		del := *u.pair.Second()
		del.Delete(old)
	}
}

// Adopt moves other's slice and policy into u. Adopting the slice u
// already holds is a no-op.
func (u *UniqueSlice[T, D]) Adopt(other *UniqueSlice[T, D]) {
	if sameBacking(u.Get(), other.Get()) {
		return
	}

	u.Reset(other.Release())
	*u.pair.Second() = *other.pair.Second()
}

// Move transfers ownership to the returned value and leaves u null.
func (u *UniqueSlice[T, D]) Move() UniqueSlice[T, D] {
	return UniqueSlice[T, D]{pair: cpair.MakePair(u.Release(), *u.pair.Second())}
}

// Swap exchanges slice and delete policy with other.
func (u *UniqueSlice[T, D]) Swap(other *UniqueSlice[T, D]) {
	*u.pair.First(), *other.pair.First() = *other.pair.First(), *u.pair.First()
	*u.pair.Second(), *other.pair.Second() = *other.pair.Second(), *u.pair.Second()
}

// Get returns the owned slice, nil when u owns nothing.
func (u *UniqueSlice[T, D]) Get() []T {
	return *u.pair.First()
}

// Deleter returns the delete policy slot.
func (u *UniqueSlice[T, D]) Deleter() *D {
	return u.pair.Second()
}

// IsNil reports whether u owns nothing.
func (u *UniqueSlice[T, D]) IsNil() bool {
	return *u.pair.First() == nil
}

// sameBacking reports whether two slices share data pointer and length,
// the address-identity analogue for the array form.
func sameBacking[T any](a, b []T) bool {
	return len(a) == len(b) && unsafe.SliceData(a) == unsafe.SliceData(b)
}
