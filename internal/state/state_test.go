package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsim/gridbot/internal/engine"
)

func TestFileWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	w := NewFileWriter(path)

	snap := engine.Snapshot{
		Timestamp: time.Now(),
		Running:   true,
		Deposit:   100,
		Equity:    100.055,
		TotalPnL:  0.055,
		Deals:     1,
		Grids: []engine.GridSummary{
			{Pair: "DOGEUSDT", Center: 1.0, Step: 0.005, Levels: 8},
		},
		RejectReasons: map[string]string{"SOLUSDT": "price too high"},
	}
	require.NoError(t, w.Write(snap))

	got, err := Read(path)
	require.NoError(t, err)
	assert.True(t, got.Running)
	assert.Equal(t, 0.055, got.TotalPnL)
	require.Len(t, got.Grids, 1)
	assert.Equal(t, "DOGEUSDT", got.Grids[0].Pair)
	assert.Equal(t, "price too high", got.RejectReasons["SOLUSDT"])
}

func TestFileWriter_OverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	w := NewFileWriter(path)

	require.NoError(t, w.Write(engine.Snapshot{Deposit: 100}))
	require.NoError(t, w.Write(engine.Snapshot{Deposit: 200}))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 200.0, got.Deposit)

	// No temp files survive a successful write.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
