package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS deals (
	deal_id    TEXT PRIMARY KEY,
	pair       TEXT NOT NULL,
	side       TEXT NOT NULL,
	entry      REAL NOT NULL,
	exit       REAL NOT NULL,
	qty        REAL NOT NULL,
	pnl        REAL NOT NULL,
	executed   INTEGER NOT NULL,
	exec_error TEXT NOT NULL DEFAULT '',
	closed_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deals_pair ON deals(pair);
`

// SQLiteJournal persists deals to a local SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLite opens (and if needed initializes) the deal database at path.
func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open deal journal: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init deal journal schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordDeal(d Deal) error {
	executed := 0
	if d.Executed {
		executed = 1
	}

	_, err := j.db.Exec(`
		INSERT INTO deals
		(deal_id, pair, side, entry, exit, qty, pnl, executed, exec_error, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Pair, d.Side, d.Entry, d.Exit, d.Qty, d.PnL,
		executed, d.ExecError, d.ClosedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (j *SQLiteJournal) ListDeals() ([]Deal, error) {
	rows, err := j.db.Query(`
		SELECT deal_id, pair, side, entry, exit, qty, pnl, executed, exec_error, closed_at
		FROM deals ORDER BY deal_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		var executed int
		var closedAt string
		if err := rows.Scan(&d.ID, &d.Pair, &d.Side, &d.Entry, &d.Exit, &d.Qty,
			&d.PnL, &executed, &d.ExecError, &closedAt); err != nil {
			return nil, err
		}
		d.Executed = executed != 0
		d.ClosedAt, _ = time.Parse(time.RFC3339Nano, closedAt)
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
