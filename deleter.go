package refptr

// Destroyer is implemented by values that need explicit teardown when their
// last owner lets go.
type Destroyer interface {
	Destroy()
}

// Deleter is the cleanup policy for a single object. Policies are types so
// that a stateless policy occupies no storage inside the pointers that
// carry one.
type Deleter[T any] interface {
	Delete(*T)
}

// DefaultDelete is the generic single-object policy: it runs the pointee's
// Destroy method if it has one and clears the value for the collector.
type DefaultDelete[T any] struct{}

func (DefaultDelete[T]) Delete(p *T) {
	if p == nil {
		return
	}
	destroyValue(p)
}

// DeleteFunc adapts a function to a Deleter. It is stateful (a function
// value), so pointers carrying one pay a word for it.
type DeleteFunc[T any] func(*T)

func (f DeleteFunc[T]) Delete(p *T) {
	f(p)
}

// SliceDeleter is the cleanup policy for the array form.
type SliceDeleter[T any] interface {
	Delete([]T)
}

// DefaultSliceDelete destroys elements in index order, then drops the
// backing array for the collector.
type DefaultSliceDelete[T any] struct{}

func (DefaultSliceDelete[T]) Delete(s []T) {
	for i := range s {
		destroyValue(&s[i])
	}
}

// SliceDeleteFunc adapts a function to a SliceDeleter.
type SliceDeleteFunc[T any] func([]T)

func (f SliceDeleteFunc[T]) Delete(s []T) {
	f(s)
}

// destroyValue is the in-place destruction primitive: run Destroy if the
// value has it, then zero the storage.
func destroyValue[T any](p *T) {
	if d, ok := any(p).(Destroyer); ok {
		d.Destroy()
	}

	var zero T
	*p = zero
}
