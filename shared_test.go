package refptr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refptr/refptr"
)

// resource counts its own destructions through a shared counter.
type resource struct {
	destroyed *int
	id        int
}

func (r *resource) Destroy() {
	if r.destroyed != nil {
		*r.destroyed++
	}
}

func TestSharedUseCountTracksLiveInstances(t *testing.T) {
	s := refptr.NewShared(new(int))
	require.Equal(t, uint(1), s.UseCount())

	c1 := s.Clone()
	c2 := s.Clone()
	require.Equal(t, uint(3), s.UseCount())
	require.Equal(t, uint(3), c2.UseCount())

	c1.Reset()
	assert.Equal(t, uint(2), s.UseCount())
	assert.True(t, c1.IsNil())
	assert.Equal(t, uint(0), c1.UseCount())

	c2.Reset()
	s.Reset()
	assert.Equal(t, uint(0), s.UseCount())
}

func TestSharedDestroysPointeeExactlyOnce(t *testing.T) {
	const n = 16

	destroyed := 0
	s := refptr.MakeShared(resource{destroyed: &destroyed})

	copies := make([]refptr.Shared[resource], n)
	for i := range copies {
		copies[i] = s.Clone()
	}

	s.Reset()
	for i := 0; i < n-1; i++ {
		copies[i].Reset()
		require.Zero(t, destroyed, "pointee destroyed while %d owners remain", n-1-i)
	}

	copies[n-1].Reset()
	assert.Equal(t, 1, destroyed)
}

func TestSharedMoveLeavesSourceNull(t *testing.T) {
	s := refptr.MakeShared(42)
	target := s.Get()

	moved := s.Move()
	assert.True(t, s.IsNil())
	assert.Equal(t, uint(0), s.UseCount())
	assert.Same(t, target, moved.Get())
	assert.Equal(t, uint(1), moved.UseCount())

	moved.Reset()
}

func TestSharedAssign(t *testing.T) {
	t.Run("ReplacesReference", func(t *testing.T) {
		destroyedA, destroyedB := 0, 0
		a := refptr.MakeShared(resource{destroyed: &destroyedA, id: 1})
		b := refptr.MakeShared(resource{destroyed: &destroyedB, id: 2})

		a.Assign(b)
		assert.Equal(t, 1, destroyedA, "old pointee released on assignment")
		assert.Equal(t, uint(2), b.UseCount())
		assert.Same(t, b.Get(), a.Get())

		a.Reset()
		b.Reset()
		assert.Equal(t, 1, destroyedB)
	})

	t.Run("SelfAssignIsNoop", func(t *testing.T) {
		destroyed := 0
		s := refptr.MakeShared(resource{destroyed: &destroyed})

		s.Assign(s)
		assert.Equal(t, uint(1), s.UseCount())
		assert.Zero(t, destroyed)

		s.Reset()
		assert.Equal(t, 1, destroyed)
	})

	t.Run("AssignNull", func(t *testing.T) {
		destroyed := 0
		s := refptr.MakeShared(resource{destroyed: &destroyed})

		s.Assign(refptr.Shared[resource]{})
		assert.True(t, s.IsNil())
		assert.Equal(t, 1, destroyed)
	})
}

func TestSharedResetTo(t *testing.T) {
	destroyed := 0
	first := &resource{destroyed: &destroyed, id: 1}
	second := &resource{destroyed: &destroyed, id: 2}

	s := refptr.NewShared(first)
	s.ResetTo(second)
	assert.Equal(t, 1, destroyed)
	assert.Same(t, second, s.Get())
	assert.Equal(t, uint(1), s.UseCount())

	// resetting to the address already held is a no-op
	s.ResetTo(second)
	assert.Equal(t, 1, destroyed)
	assert.Equal(t, uint(1), s.UseCount())

	s.Reset()
	assert.Equal(t, 2, destroyed)
}

func TestSharedCustomDeleter(t *testing.T) {
	freed := 0
	target := new(int)

	s := refptr.NewSharedWith(target, refptr.DeleteFunc[int](func(p *int) {
		require.Same(t, target, p)
		freed++
	}))

	c := s.Clone()
	s.Reset()
	assert.Zero(t, freed)
	c.Reset()
	assert.Equal(t, 1, freed)
}

func TestSharedAliasing(t *testing.T) {
	type owner struct {
		resource
		sub int
	}

	destroyed := 0
	root := refptr.MakeShared(owner{resource: resource{destroyed: &destroyed}, sub: 99})

	alias := refptr.Alias(root, &root.Get().sub)
	require.Equal(t, uint(2), root.UseCount())
	require.Equal(t, uint(2), alias.UseCount())
	assert.Equal(t, 99, *alias.Get())

	// liveness of the sub-object is governed by the shared strong count
	root.Reset()
	assert.Zero(t, destroyed)
	assert.Equal(t, 99, *alias.Get())

	alias.Reset()
	assert.Equal(t, 1, destroyed)
}

func TestSharedEqualComparesTargets(t *testing.T) {
	type owner struct {
		sub int
	}

	root := refptr.MakeShared(owner{sub: 5})
	alias := refptr.Alias(root, &root.Get().sub)
	clone := root.Clone()

	assert.True(t, root.Equal(clone), "same target, same block")
	assert.False(t, root.Equal(alias), "same block, different target")

	root.Reset()
	clone.Reset()
	alias.Reset()
}

func TestSharedSwap(t *testing.T) {
	a := refptr.MakeShared(1)
	b := refptr.MakeShared(2)
	ta, tb := a.Get(), b.Get()

	a.Swap(&b)
	assert.Same(t, tb, a.Get())
	assert.Same(t, ta, b.Get())

	a.Reset()
	b.Reset()
}

func TestSharedNilTarget(t *testing.T) {
	s := refptr.NewShared[int](nil)
	assert.True(t, s.IsNil())
	assert.Equal(t, uint(0), s.UseCount())

	// resetting a null pointer is harmless
	s.Reset()
	assert.True(t, s.IsNil())
}

func TestMakeSharedAllocatesOnce(t *testing.T) {
	allocs := testing.AllocsPerRun(200, func() {
		s := refptr.MakeShared(int64(7))
		s.Reset()
	})

	assert.Equal(t, 1.0, allocs, "metadata and object must share one allocation")
}

func BenchmarkMakeShared(b *testing.B) {
	for i := 0; i < b.N; i++ {
		s := refptr.MakeShared(int64(i))
		s.Reset()
	}
}

func BenchmarkNewShared(b *testing.B) {
	for i := 0; i < b.N; i++ {
		v := int64(i)
		s := refptr.NewShared(&v)
		s.Reset()
	}
}

func BenchmarkSharedCloneReset(b *testing.B) {
	s := refptr.MakeShared(int64(1))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c := s.Clone()
		c.Reset()
	}

	b.StopTimer()
	s.Reset()
}
