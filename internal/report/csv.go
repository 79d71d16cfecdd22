// Package report — выгрузка результатов прогона: трассы в CSV, книга
// XLSX со сводкой и сведения о системе.
package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"commonDue/internal/etsched"
	"commonDue/internal/fixopt"
	"commonDue/internal/sa"
)

var (
	annealingHeader  = []string{"objective", "stage", "iteration", "neighborhood", "temperature"}
	refinementHeader = []string{"window", "begin", "end", "objective", "improved", "nodes", "sequence"}
	scheduleHeader   = []string{"position", "job", "p", "alpha", "beta", "completion", "earliness", "tardiness"}
)

func annealingRows(trace []sa.TraceRecord) [][]string {
	rows := make([][]string, 0, len(trace))
	for _, r := range trace {
		rows = append(rows, []string{
			ftoa(r.Objective),
			itoa(r.Stage),
			itoa(r.Iteration),
			itoa(int(r.Neighborhood)),
			ftoa(r.Temperature),
		})
	}
	return rows
}

func refinementRows(trace []fixopt.TraceRecord) [][]string {
	rows := make([][]string, 0, len(trace))
	for _, r := range trace {
		rows = append(rows, []string{
			itoa(r.Window),
			itoa(r.Begin),
			itoa(r.End),
			ftoa(r.Objective),
			strconv.FormatBool(r.Improved),
			itoa(r.Nodes),
			joinInts(r.Sequence),
		})
	}
	return rows
}

// scheduleRows — расписание при заданном сдвиге: момент завершения
// уже включает сдвиг.
func scheduleRows(inst *etsched.Instance, seq []int, offset float64) [][]string {
	d := etsched.Profile(inst, seq)
	rows := make([][]string, 0, len(seq))
	for k, job := range seq {
		j := inst.Jobs[job]
		c := d[k] + offset
		rows = append(rows, []string{
			itoa(k),
			itoa(job),
			ftoa(j.P),
			ftoa(j.Alpha),
			ftoa(j.Beta),
			ftoa(c),
			ftoa(max(0, inst.DueDate-c)),
			ftoa(max(0, c-inst.DueDate)),
		})
	}
	return rows
}

// WriteAnnealingCSV пишет трассу принятых ходов отжига.
func WriteAnnealingCSV(path string, trace []sa.TraceRecord) error {
	return writeCSV(path, annealingHeader, annealingRows(trace))
}

// WriteRefinementCSV пишет трассу окон fix-and-optimize.
func WriteRefinementCSV(path string, trace []fixopt.TraceRecord) error {
	return writeCSV(path, refinementHeader, refinementRows(trace))
}

// WriteScheduleCSV пишет итоговое расписание.
func WriteScheduleCSV(path string, inst *etsched.Instance, seq []int, offset float64) error {
	return writeCSV(path, scheduleHeader, scheduleRows(inst, seq, offset))
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func joinInts(seq []int) string {
	parts := make([]string, len(seq))
	for i, v := range seq {
		parts[i] = itoa(v)
	}
	return strings.Join(parts, " ")
}
