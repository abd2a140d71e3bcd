package grid

import (
	"math"
	"time"
)

// Side is the direction of a grid level.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Order is one conditional level of a grid. Orders are created when the
// grid is built and never added afterwards; they flip between closed and
// open as price crosses their triggers, and die with the grid.
type Order struct {
	Side  Side    `json:"side"`
	Entry float64 `json:"entry"`
	Exit  float64 `json:"exit"`
	Qty   float64 `json:"qty"`
	Open  bool    `json:"open"`
}

// Notional is the cash value of the order at its entry trigger.
func (o *Order) Notional() float64 {
	return o.Entry * o.Qty
}

// EntryHit reports whether price has crossed the entry trigger of a closed
// order: at-or-below entry for a long, at-or-above for a short.
func (o *Order) EntryHit(price float64) bool {
	if o.Side == SideShort {
		return price >= o.Entry
	}
	return price <= o.Entry
}

// ExitHit reports whether price has crossed the exit trigger of an open
// order: at-or-above exit for a long, at-or-below for a short.
func (o *Order) ExitHit(price float64) bool {
	if o.Side == SideShort {
		return price <= o.Exit
	}
	return price >= o.Exit
}

// Grid is a ladder of conditional levels around a center price. There is at
// most one grid per pair.
type Grid struct {
	Pair      string    `json:"pair"`
	Center    float64   `json:"center"`
	Low       float64   `json:"low"`
	High      float64   `json:"high"`
	Step      float64   `json:"step"`
	ATR       float64   `json:"atr"`
	Orders    []*Order  `json:"orders"`
	CreatedAt time.Time `json:"created_at"`
}

// Contains reports whether price sits inside the grid bounds.
func (g *Grid) Contains(price float64) bool {
	return price >= g.Low && price <= g.High
}

// Drifted reports whether price has moved more than factor grid steps away
// from the center, which makes the existing levels useless.
func (g *Grid) Drifted(price, factor float64) bool {
	return math.Abs(price-g.Center) > factor*g.Step
}

// OpenOrders counts levels currently holding an open round-trip.
func (g *Grid) OpenOrders() int {
	n := 0
	for _, o := range g.Orders {
		if o.Open {
			n++
		}
	}
	return n
}
