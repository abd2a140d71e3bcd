package journal

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Deal is one recorded round-trip or execution attempt. Execution failures
// are recorded here too: the deal log is the audit trail for everything the
// engine asked the exchange to do.
type Deal struct {
	ID        string
	Pair      string
	Side      string
	Entry     float64
	Exit      float64
	Qty       float64
	PnL       float64
	Executed  bool
	ExecError string
	ClosedAt  time.Time
}

// NewDealID returns a sortable unique deal identifier.
func NewDealID() string {
	return ulid.Make().String()
}

// Journal is the deal log.
type Journal interface {
	RecordDeal(Deal) error
	ListDeals() ([]Deal, error)
	Close() error
}

// Noop is a journal that records nothing.
type Noop struct{}

func (Noop) RecordDeal(Deal) error    { return nil }
func (Noop) ListDeals() ([]Deal, error) { return nil, nil }
func (Noop) Close() error             { return nil }
