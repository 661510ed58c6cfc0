package refptr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refptr/refptr"
)

func TestWeakExpiresWithLastStrongOwner(t *testing.T) {
	destroyed := 0
	s := refptr.MakeShared(resource{destroyed: &destroyed})
	w := refptr.NewWeak(s)
	other := refptr.NewWeak(s)

	c := s.Clone()
	require.False(t, w.Expired())
	require.Equal(t, uint(2), w.UseCount())

	s.Reset()
	require.False(t, w.Expired(), "one strong owner remains")

	c.Reset()
	assert.True(t, w.Expired(), "expiry is immediate with the last strong reset")
	assert.True(t, other.Expired(), "other weak observers see it too")
	assert.Equal(t, 1, destroyed)

	// the block outlives the pointee: liveness queries stay valid
	assert.Equal(t, uint(0), w.UseCount())

	w.Reset()
	other.Reset()
}

func TestWeakDoesNotExtendLifetime(t *testing.T) {
	destroyed := 0
	s := refptr.MakeShared(resource{destroyed: &destroyed})

	w := refptr.NewWeak(s)
	require.Equal(t, uint(1), s.UseCount(), "weak adds no strong reference")

	s.Reset()
	assert.Equal(t, 1, destroyed, "weak observers do not keep the pointee alive")

	w.Reset()
}

func TestWeakLock(t *testing.T) {
	t.Run("LiveObject", func(t *testing.T) {
		s := refptr.MakeShared(11)
		w := refptr.NewWeak(s)

		locked := w.Lock()
		require.False(t, locked.IsNil())
		assert.Equal(t, uint(2), s.UseCount(), "lock adds exactly one strong owner")
		assert.Same(t, s.Get(), locked.Get())

		locked.Reset()
		assert.Equal(t, uint(1), s.UseCount())

		s.Reset()
		w.Reset()
	})

	t.Run("ExpiredObject", func(t *testing.T) {
		s := refptr.MakeShared(11)
		w := refptr.NewWeak(s)
		s.Reset()

		locked := w.Lock()
		assert.True(t, locked.IsNil())
		assert.Equal(t, uint(0), locked.UseCount())

		w.Reset()
	})

	t.Run("NullWeak", func(t *testing.T) {
		var w refptr.Weak[int]

		assert.True(t, w.Expired())
		assert.True(t, w.Lock().IsNil())
	})
}

func TestFromWeakPromotion(t *testing.T) {
	t.Run("LiveObject", func(t *testing.T) {
		s := refptr.MakeShared(5)
		w := refptr.NewWeak(s)

		promoted, err := refptr.FromWeak(w)
		require.NoError(t, err)
		assert.Equal(t, uint(2), s.UseCount())
		assert.Same(t, s.Get(), promoted.Get())

		promoted.Reset()
		s.Reset()
		w.Reset()
	})

	t.Run("ExpiredObject", func(t *testing.T) {
		s := refptr.MakeShared(5)
		w := refptr.NewWeak(s)
		s.Reset()

		promoted, err := refptr.FromWeak(w)
		require.Error(t, err)
		assert.True(t, errors.Is(err, refptr.ErrExpired))
		assert.True(t, promoted.IsNil())

		w.Reset()
	})
}

func TestWeakCloneAndMove(t *testing.T) {
	s := refptr.MakeShared(3)
	w := refptr.NewWeak(s)

	c := w.Clone()
	require.False(t, c.Expired())

	moved := w.Move()
	assert.True(t, w.IsNil())
	assert.False(t, moved.Expired())

	s.Reset()
	assert.True(t, moved.Expired())
	assert.True(t, c.Expired())

	moved.Reset()
	c.Reset()
}

func TestWeakAssign(t *testing.T) {
	t.Run("ReplacesReference", func(t *testing.T) {
		a := refptr.MakeShared(1)
		b := refptr.MakeShared(2)

		wa := refptr.NewWeak(a)
		wb := refptr.NewWeak(b)

		wa.Assign(wb)
		a.Reset()
		assert.False(t, wa.Expired(), "wa now observes b")

		b.Reset()
		assert.True(t, wa.Expired())

		wa.Reset()
		wb.Reset()
	})

	t.Run("SelfAssignIsNoop", func(t *testing.T) {
		s := refptr.MakeShared(1)
		w := refptr.NewWeak(s)

		w.Assign(w)
		assert.False(t, w.Expired())

		s.Reset()
		w.Reset()
	})
}

func TestWeakSurvivesPointeeDestruction(t *testing.T) {
	// object destruction happens before block release: a weak reset after
	// the pointee is gone must still run cleanly and release the block.
	destroyed := 0
	s := refptr.MakeShared(resource{destroyed: &destroyed})
	w1 := refptr.NewWeak(s)
	w2 := w1.Clone()

	s.Reset()
	require.Equal(t, 1, destroyed)

	require.True(t, w1.Expired())
	w1.Reset()

	require.True(t, w2.Expired(), "remaining weak still queries the block")
	w2.Reset()
}
