package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteJournal_RoundTrip(t *testing.T) {
	j, err := NewSQLite(filepath.Join(t.TempDir(), "deals.db"))
	require.NoError(t, err)
	defer j.Close()

	first := Deal{
		ID:       NewDealID(),
		Pair:     "DOGEUSDT",
		Side:     "long",
		Entry:    0.995,
		Exit:     1.0,
		Qty:      12.5,
		PnL:      0.0621,
		Executed: true,
		ClosedAt: time.Now(),
	}
	require.NoError(t, j.RecordDeal(first))

	failed := Deal{
		ID:        NewDealID(),
		Pair:      "TONUSDT",
		Side:      "short",
		Entry:     5.1,
		Exit:      5.0,
		Qty:       2,
		Executed:  false,
		ExecError: "order rejected: insufficient balance",
		ClosedAt:  time.Now(),
	}
	require.NoError(t, j.RecordDeal(failed))

	deals, err := j.ListDeals()
	require.NoError(t, err)
	require.Len(t, deals, 2)

	// ULIDs sort by creation time, so insertion order survives.
	assert.Equal(t, "DOGEUSDT", deals[0].Pair)
	assert.Equal(t, 0.0621, deals[0].PnL)
	assert.True(t, deals[0].Executed)

	assert.Equal(t, "TONUSDT", deals[1].Pair)
	assert.False(t, deals[1].Executed)
	assert.Contains(t, deals[1].ExecError, "rejected")
}

func TestSQLiteJournal_EmptyList(t *testing.T) {
	j, err := NewSQLite(filepath.Join(t.TempDir(), "deals.db"))
	require.NoError(t, err)
	defer j.Close()

	deals, err := j.ListDeals()
	require.NoError(t, err)
	assert.Empty(t, deals)
}

func TestNewDealID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewDealID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
