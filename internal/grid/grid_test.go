package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrder_EntryHitBoundary(t *testing.T) {
	long := &Order{Side: SideLong, Entry: 95, Exit: 100}

	assert.False(t, long.EntryHit(95.01))
	assert.True(t, long.EntryHit(95), "long entry triggers at exactly the entry price")
	assert.True(t, long.EntryHit(94))

	short := &Order{Side: SideShort, Entry: 105, Exit: 100}

	assert.False(t, short.EntryHit(104.99))
	assert.True(t, short.EntryHit(105), "short entry triggers at exactly the entry price")
	assert.True(t, short.EntryHit(106))
}

func TestOrder_ExitHitBoundary(t *testing.T) {
	long := &Order{Side: SideLong, Entry: 95, Exit: 100, Open: true}

	assert.False(t, long.ExitHit(99.99))
	assert.True(t, long.ExitHit(100))
	assert.True(t, long.ExitHit(101))

	short := &Order{Side: SideShort, Entry: 105, Exit: 100, Open: true}

	assert.False(t, short.ExitHit(100.01))
	assert.True(t, short.ExitHit(100))
	assert.True(t, short.ExitHit(99))
}

func TestGrid_Contains(t *testing.T) {
	g := &Grid{Low: 90, High: 110}

	assert.True(t, g.Contains(90))
	assert.True(t, g.Contains(100))
	assert.True(t, g.Contains(110))
	assert.False(t, g.Contains(89.99))
	assert.False(t, g.Contains(110.01))
}

func TestGrid_Drifted(t *testing.T) {
	g := &Grid{Center: 100, Step: 5}

	assert.False(t, g.Drifted(115, 3), "exactly 3 steps away is not yet drifted")
	assert.True(t, g.Drifted(115.01, 3))
	assert.True(t, g.Drifted(84.99, 3))
	assert.False(t, g.Drifted(100, 3))
}

func TestGrid_OpenOrders(t *testing.T) {
	g := &Grid{Orders: []*Order{
		{Open: true},
		{Open: false},
		{Open: true},
	}}

	assert.Equal(t, 2, g.OpenOrders())
}
