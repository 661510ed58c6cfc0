package cpair_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refptr/refptr/internal/container/cpair"
)

type statelessPolicy struct{}

type statefulPolicy struct {
	calls int
}

func TestStatelessSecondSlotCostsNothing(t *testing.T) {
	var p cpair.Pair[*int, statelessPolicy]

	assert.Equal(t, unsafe.Sizeof((*int)(nil)), unsafe.Sizeof(p))
}

func TestStatefulSecondSlotIsStored(t *testing.T) {
	p := cpair.MakePair(int64(7), statefulPolicy{calls: 3})

	require.Equal(t, int64(7), *p.First())
	require.Equal(t, 3, p.Second().calls)

	assert.GreaterOrEqual(t, unsafe.Sizeof(p), unsafe.Sizeof(int64(0))+unsafe.Sizeof(int(0)))
}

func TestSlotsAreIndependentlyMutable(t *testing.T) {
	p := cpair.MakePair("first", 10)

	*p.First() = "changed"
	assert.Equal(t, "changed", *p.First())
	assert.Equal(t, 10, *p.Second())

	*p.Second() = 20
	assert.Equal(t, "changed", *p.First())
	assert.Equal(t, 20, *p.Second())
}

func TestPartialConstruction(t *testing.T) {
	first := cpair.MakeFirst[int, string](42)
	assert.Equal(t, 42, *first.First())
	assert.Equal(t, "", *first.Second())

	second := cpair.MakeSecond[int, string]("only")
	assert.Equal(t, 0, *second.First())
	assert.Equal(t, "only", *second.Second())

	var zero cpair.Pair[int, string]
	assert.Equal(t, 0, *zero.First())
	assert.Equal(t, "", *zero.Second())
}
