// Package run — конвейер: начальная последовательность, отжиг,
// fix-and-optimize.
package run

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"commonDue/internal/config"
	"commonDue/internal/errs"
	"commonDue/internal/etsched"
	"commonDue/internal/fixopt"
	"commonDue/internal/heuristic"
	"commonDue/internal/logger"
	"commonDue/internal/lp"
	"commonDue/internal/metrics"
	"commonDue/internal/opt"
	"commonDue/internal/report"
	"commonDue/internal/sa"
)

// Источник начальной последовательности
const (
	SeedConstructive = "constructive"
	SeedRandom       = "random"
)

// StopSkipped — отжиг не запускался (меньше двух работ).
const StopSkipped = "skipped"

// Report — результат прогона со всеми трассами.
type Report struct {
	RunID         string
	Seed          int64
	SeedSource    string
	SeedSequence  []int
	SeedObjective float64

	Annealing  sa.Result
	Refinement fixopt.Result

	Final  opt.Result
	Offset float64

	Started  time.Time
	Duration time.Duration
}

// Pipeline — полный прогон по конфигурации.
type Pipeline struct {
	Cfg  config.Config
	Seed int64

	// LP оценивает последовательности, MILP решает окна.
	LP   lp.Solver
	MILP lp.Solver
}

var _ opt.Optimizer = (*Pipeline)(nil)

func New(cfg config.Config, seed int64) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{Cfg: cfg, Seed: seed, LP: cfg.LP(), MILP: cfg.MILP()}, nil
}

// WithSeed возвращает копию конвейера с другим сидом.
func (p *Pipeline) WithSeed(seed int64) *Pipeline {
	q := *p
	q.Seed = seed
	return &q
}

// Run выполняет прогон. При ошибке отчёт содержит уже пройденные этапы.
func (p *Pipeline) Run(ctx context.Context, inst *etsched.Instance) (*Report, error) {
	rep := &Report{RunID: uuid.NewString(), Seed: p.Seed, Started: time.Now()}
	defer func() { rep.Duration = time.Since(rep.Started) }()

	if err := inst.Validate(); err != nil {
		return rep, err
	}
	if err := p.Cfg.Validate(); err != nil {
		return rep, err
	}
	log := logger.Component("run").With().Str("run_id", rep.RunID).Logger()
	rng := rand.New(rand.NewSource(p.Seed))
	n := inst.N()

	ev, err := etsched.NewEvaluator(inst, p.LP)
	if err != nil {
		return rep, err
	}

	log.Info().
		Int("jobs", n).
		Float64("due_date", inst.DueDate).
		Int64("seed", p.Seed).
		Bool("constructive", p.Cfg.UseConstructiveHeuristic).
		Msg("run started")

	if p.Cfg.UseConstructiveHeuristic {
		built, err := heuristic.Build(inst)
		if err != nil {
			return rep, err
		}
		rep.SeedSource, rep.SeedSequence = SeedConstructive, built.Sequence
	} else {
		rep.SeedSource, rep.SeedSequence = SeedRandom, etsched.RandomPermutation(n, rng)
	}
	seedEval, err := ev.Evaluate(ctx, rep.SeedSequence)
	if err != nil {
		return rep, p.fail(log, "seed", err)
	}
	rep.SeedObjective = seedEval.Objective
	metrics.BestObjective.WithLabelValues("seed").Set(seedEval.Objective)

	seq, obj := rep.SeedSequence, rep.SeedObjective
	if n < 2 {
		rep.Annealing = sa.Result{StopReason: StopSkipped}
		rep.Annealing.Sequence, rep.Annealing.Objective = seq, obj
	} else {
		solver, err := sa.New(p.Cfg.Annealing, rng)
		if err != nil {
			return rep, err
		}
		rep.Annealing, err = solver.Solve(ctx, ev, seq)
		if err != nil {
			return rep, p.fail(log, "annealing", err)
		}
		seq, obj = rep.Annealing.Sequence, rep.Annealing.Objective
		log.Info().
			Float64("objective", obj).
			Int("stages", len(rep.Annealing.Stages)).
			Str("stop", rep.Annealing.StopReason).
			Bool("improved_seed", rep.Annealing.Improved(rep.SeedObjective, 0)).
			Msg("annealing finished")
	}
	metrics.BestObjective.WithLabelValues("annealing").Set(obj)

	refinements := 0
	if p.Cfg.FixAndOptimize.Enabled && n >= 2 {
		refiner, err := fixopt.New(p.Cfg.FixAndOptimize, p.MILP)
		if err != nil {
			return rep, err
		}
		rep.Refinement, err = refiner.Refine(ctx, inst, seq, obj)
		if err != nil {
			return rep, p.fail(log, "fix_and_optimize", err)
		}
		refinements = rep.Refinement.Evaluations
		seq = rep.Refinement.Sequence
		log.Info().
			Float64("objective", rep.Refinement.Objective).
			Int("windows", len(rep.Refinement.Trace)).
			Msg("fix-and-optimize finished")
	}

	final, err := ev.Evaluate(ctx, seq)
	if err != nil {
		return rep, p.fail(log, "final", err)
	}
	metrics.BestObjective.WithLabelValues("final").Set(final.Objective)

	rep.Offset = final.Offset
	rep.Final = opt.Result{
		Sequence:    append([]int(nil), seq...),
		Objective:   final.Objective,
		OnTime:      final.OnTime,
		Evaluations: ev.Calls() + refinements,
		Iterations:  rep.Annealing.Iterations + len(rep.Refinement.Trace),
		Duration:    time.Since(rep.Started),
		Meta: map[string]any{
			"run_id":      rep.RunID,
			"seed_source": rep.SeedSource,
			"stop":        rep.Annealing.StopReason,
			"offset":      final.Offset,
		},
	}

	log.Info().
		Float64("objective", final.Objective).
		Int("on_time", final.OnTime).
		Float64("offset", final.Offset).
		Dur("duration", rep.Final.Duration).
		Msg("run finished")
	return rep, nil
}

// Solve — Run, сведённый к opt.Result.
func (p *Pipeline) Solve(ctx context.Context, inst *etsched.Instance) (opt.Result, error) {
	rep, err := p.Run(ctx, inst)
	if err != nil {
		return opt.Result{}, err
	}
	return rep.Final, nil
}

func (p *Pipeline) fail(log zerolog.Logger, phase string, err error) error {
	e := log.Error().Err(err).Str("phase", phase).Str("code", string(errs.CodeOf(err)))
	for k, v := range errs.FieldsOf(err) {
		e = e.Interface(k, v)
	}
	e.Msg("run aborted")
	return err
}

// Summary сводит отчёт для книги.
func (r *Report) Summary(instance string, inst *etsched.Instance, sys report.SysInfo) report.Summary {
	return report.Summary{
		RunID:              r.RunID,
		Instance:           instance,
		Jobs:               inst.N(),
		DueDate:            inst.DueDate,
		Seed:               r.Seed,
		SeedSource:         r.SeedSource,
		SeedObjective:      r.SeedObjective,
		AnnealingObjective: r.Annealing.Objective,
		FinalObjective:     r.Final.Objective,
		OnTime:             r.Final.OnTime,
		Offset:             r.Offset,
		Evaluations:        r.Final.Evaluations,
		Duration:           r.Duration,
		StopReason:         r.Annealing.StopReason,
		System:             sys,
	}
}

// Workbook собирает содержимое книги XLSX.
func (r *Report) Workbook(instance string, inst *etsched.Instance, sys report.SysInfo) report.Workbook {
	return report.Workbook{
		Summary:    r.Summary(instance, inst, sys),
		Instance:   inst,
		Sequence:   r.Final.Sequence,
		Annealing:  r.Annealing.Trace,
		Refinement: r.Refinement.Trace,
	}
}

// Stem — основа имён выходных файлов: экземпляр и ключевые параметры.
func Stem(instance string, cfg config.Config) string {
	return fmt.Sprintf("%s_Temp_%g_Stop_%d_InitAccept_%g_pctchange_%g_wjump_%d_construcHeur_%t",
		instance,
		cfg.Annealing.CoolingFactor,
		cfg.Annealing.StageStopCount,
		cfg.Annealing.InitialAcceptance,
		cfg.Annealing.RelativeStopMinPctChange,
		cfg.FixAndOptimize.Jump,
		cfg.UseConstructiveHeuristic,
	)
}
