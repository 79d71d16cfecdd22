// Package opt — общий контракт стадий оптимизации.
package opt

import (
	"context"
	"time"

	"commonDue/internal/etsched"
)

// Optimizer строит последовательность для экземпляра целиком.
type Optimizer interface {
	Solve(ctx context.Context, inst *etsched.Instance) (Result, error)
}

// Result — итог стадии или всего конвейера.
type Result struct {
	Sequence    []int
	Objective   float64
	OnTime      int
	Evaluations int
	Iterations  int
	Duration    time.Duration
	Meta        map[string]any
}

// Improved сообщает, строго ли r лучше prev с абсолютным допуском tol.
func (r Result) Improved(prev float64, tol float64) bool {
	return r.Objective < prev-tol
}
