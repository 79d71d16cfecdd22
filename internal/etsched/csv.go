package etsched

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"commonDue/internal/errs"
)

// ReadJobs читает таблицу работ без заголовка: по строке на работу,
// столбцы p, alpha, beta. Номер строки — идентификатор работы.
func ReadJobs(r io.Reader) ([]Job, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var jobs []Job
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeInvalidInstance, "jobs csv line %d", line)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != 3 {
			return nil, errs.InvalidInstance("jobs csv line %d: want 3 columns p,alpha,beta (got %d)", line, len(rec))
		}
		var vals [3]float64
		for k, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errs.Wrap(err, errs.CodeInvalidInstance, "jobs csv line %d column %d", line, k+1)
			}
			vals[k] = v
		}
		jobs = append(jobs, Job{ID: len(jobs), P: vals[0], Alpha: vals[1], Beta: vals[2]})
	}
	return jobs, nil
}

// LoadInstance читает таблицу работ из файла и проверяет экземпляр.
func LoadInstance(path string, dueDate float64) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInvalidInstance, "open jobs table")
	}
	defer f.Close()

	jobs, err := ReadJobs(f)
	if err != nil {
		return nil, err
	}
	return NewInstance(jobs, dueDate)
}
