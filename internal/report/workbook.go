package report

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"commonDue/internal/etsched"
	"commonDue/internal/fixopt"
	"commonDue/internal/sa"
)

// Имена листов книги
const (
	SheetSummary    = "summary"
	SheetAnnealing  = "simulated_annealing"
	SheetRefinement = "fix_and_optimize"
	SheetSchedule   = "schedule"
)

// Summary — сводка прогона для первого листа книги.
type Summary struct {
	RunID              string
	Instance           string
	Jobs               int
	DueDate            float64
	Seed               int64
	SeedSource         string
	SeedObjective      float64
	AnnealingObjective float64
	FinalObjective     float64
	OnTime             int
	Offset             float64
	Evaluations        int
	Duration           time.Duration
	StopReason         string
	System             SysInfo
}

func (s Summary) rows() [][]string {
	return [][]string{
		{"run_id", s.RunID},
		{"instance", s.Instance},
		{"jobs", itoa(s.Jobs)},
		{"due_date", ftoa(s.DueDate)},
		{"seed", strconv.FormatInt(s.Seed, 10)},
		{"seed_source", s.SeedSource},
		{"seed_objective", ftoa(s.SeedObjective)},
		{"annealing_objective", ftoa(s.AnnealingObjective)},
		{"final_objective", ftoa(s.FinalObjective)},
		{"on_time", itoa(s.OnTime)},
		{"offset", ftoa(s.Offset)},
		{"evaluations", itoa(s.Evaluations)},
		{"duration_ms", ftoa(float64(s.Duration.Microseconds()) / 1000.0)},
		{"stop_reason", s.StopReason},
		{"platform", s.System.Platform},
		{"cpu", s.System.CPU},
		{"ram", s.System.RAM},
	}
}

// Workbook — всё, что выгружается в книгу.
type Workbook struct {
	Summary    Summary
	Instance   *etsched.Instance
	Sequence   []int
	Annealing  []sa.TraceRecord
	Refinement []fixopt.TraceRecord
}

// WriteWorkbook сохраняет книгу XLSX: сводка, расписание и по листу на
// каждую трассу. Ширина столбцов подбирается по содержимому.
func WriteWorkbook(path string, wb Workbook) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if err := writeSheet(f, SheetSummary, []string{"key", "value"}, wb.Summary.rows()); err != nil {
		return err
	}

	sheets := []sheetDef{
		{SheetAnnealing, annealingHeader, annealingRows(wb.Annealing)},
		{SheetRefinement, refinementHeader, refinementRows(wb.Refinement)},
	}
	if wb.Instance != nil && wb.Sequence != nil {
		sheets = append(sheets, sheetDef{SheetSchedule, scheduleHeader, scheduleRows(wb.Instance, wb.Sequence, wb.Summary.Offset)})
	}
	for _, s := range sheets {
		if _, err := f.NewSheet(s.name); err != nil {
			return err
		}
		if err := writeSheet(f, s.name, s.header, s.rows); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

type sheetDef struct {
	name   string
	header []string
	rows   [][]string
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	put := func(row int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		typed := make([]any, len(values))
		for i, v := range values {
			typed[i] = cellValue(v)
			if i < len(widths) && len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
		return f.SetSheetRow(sheet, cell, &typed)
	}

	if err := put(1, header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := put(i+2, r); err != nil {
			return err
		}
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(w+1)); err != nil {
			return err
		}
	}
	return nil
}

// cellValue пишет числа числами, остальное строками.
func cellValue(v string) any {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}
