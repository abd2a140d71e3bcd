package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/xuri/excelize/v2"

	"github.com/gridsim/gridbot/internal/engine"
	"github.com/gridsim/gridbot/internal/journal"
)

// WriteSummary renders the end-of-session console summary.
func WriteSummary(w io.Writer, snap engine.Snapshot, deals []journal.Deal) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Session Summary")
	t.AppendRows([]table.Row{
		{"Deposit", fmt.Sprintf("%.2f USDT", snap.Deposit)},
		{"Equity", fmt.Sprintf("%.2f USDT", snap.Equity)},
		{"Realized PnL", fmt.Sprintf("%+.4f USDT", snap.TotalPnL)},
		{"Closed deals", snap.Deals},
		{"Active grids", len(snap.Grids)},
		{"Uptime", snap.Uptime},
	})
	t.Render()

	if len(snap.PairStats) > 0 {
		pt := table.NewWriter()
		pt.SetOutputMirror(w)
		pt.AppendHeader(table.Row{"Pair", "Deals", "PnL"})
		for pair, stats := range snap.PairStats {
			pt.AppendRow(table.Row{pair, stats.Deals, fmt.Sprintf("%+.4f", stats.PnL)})
		}
		pt.SortBy([]table.SortBy{{Name: "Pair", Mode: table.Asc}})
		pt.SetColumnConfigs([]table.ColumnConfig{
			{Name: "PnL", Align: text.AlignRight},
		})
		pt.Render()
	}

	if len(deals) > 0 {
		dt := table.NewWriter()
		dt.SetOutputMirror(w)
		dt.AppendHeader(table.Row{"Closed", "Pair", "Side", "Entry", "Exit", "Qty", "PnL", "Executed"})
		for _, d := range deals {
			dt.AppendRow(table.Row{
				d.ClosedAt.Format("15:04:05"),
				d.Pair, d.Side,
				fmt.Sprintf("%.6f", d.Entry),
				fmt.Sprintf("%.6f", d.Exit),
				fmt.Sprintf("%.4f", d.Qty),
				fmt.Sprintf("%+.4f", d.PnL),
				d.Executed,
			})
		}
		dt.Render()
	}
}

var dealHeader = []string{"deal_id", "closed_at", "pair", "side", "entry", "exit", "qty", "pnl", "executed", "exec_error"}

func dealRecord(d journal.Deal) []string {
	return []string{
		d.ID,
		d.ClosedAt.Format(time.RFC3339),
		d.Pair,
		d.Side,
		strconv.FormatFloat(d.Entry, 'f', -1, 64),
		strconv.FormatFloat(d.Exit, 'f', -1, 64),
		strconv.FormatFloat(d.Qty, 'f', -1, 64),
		strconv.FormatFloat(d.PnL, 'f', -1, 64),
		strconv.FormatBool(d.Executed),
		d.ExecError,
	}
}

// ExportCSV writes the deal log as a CSV file.
func ExportCSV(path string, deals []journal.Deal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(dealHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, d := range deals {
		if err := w.Write(dealRecord(d)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ExportXLSX writes the deal log as a spreadsheet.
func ExportXLSX(path string, deals []journal.Deal) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Deals"
	f.SetSheetName("Sheet1", sheet)

	for col, name := range dealHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, name)
	}
	for row, d := range deals {
		record := dealRecord(d)
		for col, val := range record {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, val)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx report: %w", err)
	}
	return nil
}

// Save writes the CSV and XLSX deal exports into dir, named by timestamp,
// and returns the file paths.
func Save(dir string, deals []journal.Deal) (csvPath, xlsxPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report dir: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	csvPath = filepath.Join(dir, fmt.Sprintf("deals_%s.csv", stamp))
	xlsxPath = filepath.Join(dir, fmt.Sprintf("deals_%s.xlsx", stamp))

	if err := ExportCSV(csvPath, deals); err != nil {
		return "", "", err
	}
	if err := ExportXLSX(xlsxPath, deals); err != nil {
		return "", "", err
	}
	return csvPath, xlsxPath, nil
}
