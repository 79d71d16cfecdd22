package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"commonDue/internal/bench"
	"commonDue/internal/config"
	"commonDue/internal/etsched"
	"commonDue/internal/heuristic"
	"commonDue/internal/logger"
	"commonDue/internal/lp"
	"commonDue/internal/metrics"
	"commonDue/internal/opt"
	"commonDue/internal/run"
)

// constructiveOnly — конструктивная эвристика с оценкой через ЛП.
type constructiveOnly struct{ solver lp.Solver }

func (c constructiveOnly) Solve(ctx context.Context, inst *etsched.Instance) (opt.Result, error) {
	start := time.Now()
	built, err := heuristic.Build(inst)
	if err != nil {
		return opt.Result{}, err
	}
	ev, err := etsched.NewEvaluator(inst, c.solver)
	if err != nil {
		return opt.Result{}, err
	}
	res, err := ev.Evaluate(ctx, built.Sequence)
	if err != nil {
		return opt.Result{}, err
	}
	return opt.Result{
		Sequence:    built.Sequence,
		Objective:   res.Objective,
		OnTime:      res.OnTime,
		Evaluations: ev.Calls(),
		Iterations:  inst.N(),
		Duration:    time.Since(start),
	}, nil
}

// Фабрики

func newConstructiveFactory(cfg config.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		return constructiveOnly{solver: cfg.LP()}
	}
}

// newPipelineFactory проверяет конфигурацию один раз; фабрика только
// меняет сид.
func newPipelineFactory(cfg config.Config, constructive, refine bool) (func(seed int64) opt.Optimizer, error) {
	cfg.UseConstructiveHeuristic = constructive
	cfg.FixAndOptimize.Enabled = refine
	base, err := run.New(cfg, 0)
	if err != nil {
		return nil, err
	}
	return func(seed int64) opt.Optimizer {
		return base.WithSeed(seed)
	}, nil
}

func main() {
	// CLI флаги для настройки прогонов
	var (
		out          = flag.String("out", "artifacts/results.csv", "путь к выходному CSV-файлу")
		casesFlag    = flag.String("cases", "20x0.4,50x0.6", "конфигурации: количество работ x коэффициент h (через запятую)")
		algos        = flag.String("algos", "CH,CH+SA,RND+SA,CH+SA+FO", "варианты: CH, CH+SA, RND+SA, CH+SA+FO, RND+SA+FO (через запятую)")
		runs         = flag.Int("runs", 10, "количество запусков каждого варианта (с разными сидами)")
		baseSeed     = flag.Int64("seed", 1000, "базовый сид для запусков")
		instanceSeed = flag.Int64("instance_seed", 777, "базовый сид для генерации экземпляров задачи (фиксирован для конфигурации)")
		perRunTO     = flag.Duration("per_run_timeout", 0, "таймаут одного запуска; 0 — без ограничения")
		cfgPath      = flag.String("config", "", "YAML-конфигурация (пусто — значения по умолчанию)")
		metricsOut   = flag.String("metrics", "", "файл для выгрузки метрик Prometheus (textfile)")
		verbose      = flag.Bool("v", false, "журнал компонентов в stderr")
	)
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации:", err)
		os.Exit(2)
	}
	if *verbose {
		if err := logger.Init(cfg.Log); err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка настройки журнала:", err)
			os.Exit(2)
		}
	}
	metrics.RegisterDefault()

	cases, err := bench.ParseCases(*casesFlag, *instanceSeed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт:", err)
		os.Exit(2)
	}

	available := map[string]bench.Algorithm{
		"CH": {Name: "CH", Factory: newConstructiveFactory(cfg)},
	}
	for _, v := range []struct {
		name                 string
		constructive, refine bool
	}{
		{"CH+SA", true, false},
		{"RND+SA", false, false},
		{"CH+SA+FO", true, true},
		{"RND+SA+FO", false, true},
	} {
		factory, err := newPipelineFactory(cfg, v.constructive, v.refine)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Конфликт в конфигурации:", err)
			os.Exit(2)
		}
		available[v.name] = bench.Algorithm{Name: v.name, Factory: factory}
	}

	var selected []bench.Algorithm
	for _, a := range bench.SplitCSV(*algos) {
		al, ok := available[a]
		if !ok {
			fmt.Fprintf(os.Stderr, "Вариант не предоставлен в программе %q; доступные: %v\n", a, keys(available))
			os.Exit(2)
		}
		selected = append(selected, al)
	}

	runner := bench.Runner{
		Runs:          *runs,
		BaseSeed:      *baseSeed,
		PerRunTimeout: *perRunTO,
	}

	var records []bench.Record
	for _, c := range cases {
		for _, a := range selected {
			fmt.Printf("Запущен вариант %s; %d работ, h=%.2f (общее кол-во запусков=%d)...\n", a.Name, c.Jobs, c.H, runner.Runs)

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Ошибка:", err)
				os.Exit(1)
			}
			records = append(records, rec)

			fmt.Printf("  Значение целевой функции: лучшее=%.2f среднее=%.2f стандартное отклонение=%.2f отклонение от CH=%.2f%% | Время: среднее=%.2fms среднее отклонение=%.2fms\n",
				rec.ObjectiveBest, rec.ObjectiveMean, rec.ObjectiveStd, rec.GapMeanPct,
				rec.TimeMeanMs, rec.TimeStdMs,
			)
		}
	}

	if err := bench.WriteCSV(*out, records); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка при записи в CSV:", err)
		os.Exit(1)
	}
	fmt.Println("Saved:", *out)

	if *metricsOut != "" {
		if err := metrics.WriteTextfile(*metricsOut); err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка при записи метрик:", err)
			os.Exit(1)
		}
	}
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
