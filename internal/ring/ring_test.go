package ring

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingPushPop(t *testing.T) {
	r := mustRing[int](t, 4)

	for i := 0; i < 4; i++ {
		r.Push(i)
	}

	assert.True(t, r.Full())
	assert.Equal(t, 4, r.Len())

	for i := 0; i < 4; i++ {
		assert.Equal(t, i, r.Pop())
	}

	assert.True(t, r.Empty())
}

func TestRingWraparound(t *testing.T) {
	r := mustRing[int](t, 5)

	for round := 0; round < 3; round++ {
		for i := 0; i < 5; i++ {
			r.Push(round*100 + i)
		}

		for i := 0; i < 5; i++ {
			require.Equal(t, round*100+i, r.Pop())
		}
	}
}

func TestRingPopReleasesSlot(t *testing.T) {
	r := mustRing[*int](t, 2)
	v := 1
	r.Push(&v)
	r.Pop()

	assert.Nil(t, r.slots[0])
}

func TestRingGrowWrapped(t *testing.T) {
	r := mustRing[int](t, 4)

	// Leave the queue as [4 5 | 2 3] with head at index 2.
	for i := 0; i < 4; i++ {
		r.Push(i)
	}

	r.Pop()
	r.Pop()
	r.Push(4)
	r.Push(5)
	require.True(t, r.Full())
	require.Equal(t, 2, r.head)

	require.NoError(t, r.Grow(8))
	assert.Equal(t, 8, r.Cap())
	assert.Equal(t, 0, r.head)
	assert.Equal(t, 4, r.tail)
	assert.Equal(t, []int{2, 3, 4, 5, 0, 0, 0, 0}, r.slots)

	for i := 2; i < 6; i++ {
		assert.Equal(t, i, r.Pop())
	}
}

func TestRingGrowContiguous(t *testing.T) {
	r := mustRing[int](t, 4)
	r.Push(1)
	r.Push(2)
	r.Pop()

	require.NoError(t, r.Grow(8))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, r.Pop())
}

func TestRingGrowRejectsShrink(t *testing.T) {
	r := mustRing[int](t, 4)
	assert.Error(t, r.Grow(4))
	assert.Error(t, r.Grow(2))
}

func TestRingContractViolations(t *testing.T) {
	r := mustRing[int](t, 1)

	assert.Panics(t, func() { r.Pop() })
	r.Push(1)
	assert.Panics(t, func() { r.Push(2) })
}

func TestRingNewRejectsInvalidCapacity(t *testing.T) {
	_, err := New[int](0)
	assert.ErrorIs(t, err, ErrCapacity)

	_, err = New[int](-1)
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestAllocReportsImpossibleSize(t *testing.T) {
	_, err := Alloc[[1 << 20]byte](1 << 50)
	assert.ErrorIs(t, err, ErrAlloc)
}

func mustRing[T any](t *testing.T, capacity int) *Ring[T] {
	t.Helper()

	r, err := New[T](capacity)
	require.NoError(t, err)
	return r
}

func item(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func TestArenaWrappedCopyOrdered(t *testing.T) {
	cur := &Cursors{Capacity: 3}
	a := NewArena(make([]byte, 3*4), 4, cur)

	a.Push(item(1))
	a.Push(item(2))
	a.Push(item(3))

	dst := make([]byte, 4)
	a.Pop(dst)
	assert.Equal(t, item(1), dst)

	a.Push(item(4))
	require.True(t, a.Full())
	require.Equal(t, int64(1), cur.Head)

	grown := make([]byte, 6*4)
	assert.Equal(t, 3*4, a.CopyOrdered(grown))
	a.Rebase(grown, 6)

	assert.Equal(t, int64(0), cur.Head)
	assert.Equal(t, int64(3), cur.Tail)
	assert.Equal(t, 6, a.Cap())

	for _, want := range []uint32{2, 3, 4} {
		a.Pop(dst)
		assert.Equal(t, item(want), dst)
	}
}

func TestArenaLengthChecks(t *testing.T) {
	a := NewArena(make([]byte, 8), 4, &Cursors{Capacity: 2})

	assert.Panics(t, func() { a.Push(make([]byte, 3)) })
	a.Push(item(7))
	assert.Panics(t, func() { a.Pop(make([]byte, 5)) })
	assert.Panics(t, func() { a.Slot(2) })
}
