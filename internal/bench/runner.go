// Package bench — многократные запуски вариантов конвейера на
// сгенерированных экземплярах и выгрузка статистики в CSV.
package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"commonDue/internal/etsched"
	"commonDue/internal/heuristic"
	"commonDue/internal/opt"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) opt.Optimizer
}

// Case — экземпляр из Jobs работ с D = floor(H * sum(p)).
type Case struct {
	Jobs         int
	H            float64
	InstanceSeed int64
}

type Record struct {
	Algo string
	Jobs int
	H    float64
	Runs int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	ObjectiveBest float64
	ObjectiveMean float64
	ObjectiveStd  float64

	// Отклонение среднего от конструктивной эвристики, %
	GapMeanPct float64

	EvaluationsMean float64
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
}

// Instance строит экземпляр случая.
func (c Case) Instance() *etsched.Instance {
	return etsched.RandomInstance(c.Jobs, c.H, randForSeed(c.InstanceSeed))
}

func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	inst := c.Instance()

	ref, err := heuristic.Build(inst)
	if err != nil {
		return Record{}, err
	}
	_, refObj := etsched.BestOffset(inst, ref.Sequence)

	objectives := make([]float64, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	evals := make([]int, 0, r.Runs)

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)

		op := algo.Factory(runSeed)

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, inst)
		dur := time.Since(start)
		cancel()

		if err != nil && runCtx.Err() != nil {
			return Record{}, fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		if err := etsched.ValidatePermutation(res.Sequence, inst.N()); err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		objectives = append(objectives, res.Objective)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		evals = append(evals, res.Evaluations)
	}

	objStats := CalcStats(objectives)
	tStats := CalcStats(timesMs)

	return Record{
		Algo: algo.Name,
		Jobs: c.Jobs,
		H:    c.H,
		Runs: r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		ObjectiveBest: objStats.Best,
		ObjectiveMean: objStats.Mean,
		ObjectiveStd:  objStats.Std,

		GapMeanPct:      RelativeGap(objStats.Mean, refObj),
		EvaluationsMean: CalcStats(evals).Mean,
	}, nil
}

func WriteCSV(path string, records []Record) error {
	if d := dirOf(path); d != "" {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"algo", "jobs", "h", "runs",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"objective_best", "objective_mean", "objective_std",
		"gap_mean_pct", "evaluations_mean",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Algo,
			itoa(r.Jobs),
			ftoa(r.H),
			itoa(r.Runs),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			ftoa(r.ObjectiveBest),
			ftoa(r.ObjectiveMean),
			ftoa(r.ObjectiveStd),

			ftoa(r.GapMeanPct),
			ftoa(r.EvaluationsMean),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
