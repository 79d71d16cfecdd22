// Package sa — имитация отжига над последовательностями работ.
package sa

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"commonDue/internal/errs"
	"commonDue/internal/etsched"
	"commonDue/internal/logger"
	"commonDue/internal/metrics"
	"commonDue/internal/opt"
)

// TraceRecord — принятый ход.
type TraceRecord struct {
	Objective    float64
	Stage        int
	Iteration    int
	Neighborhood Neighborhood
	Temperature  float64
}

// StageStats — итог одной стадии.
type StageStats struct {
	Stage       int
	Temperature float64
	Tested      int
	Accepted    int
	Best        float64
}

type Result struct {
	opt.Result
	InitialTemperature float64
	StopReason         string
	Trace              []TraceRecord
	Stages             []StageStats
}

// Solver - структура реализации алгоритма имитации отжига
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый SA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

// Solve запускает отжиг от последовательности seed.
//
// При отмене контекста возвращается лучшее найденное решение вместе с
// ошибкой контекста. Ошибка решателя прерывает прогон.
func (s *Solver) Solve(ctx context.Context, eval *etsched.Evaluator, seed []int) (Result, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return Result{}, err
	}
	if s.Rng == nil {
		return Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	inst := eval.Instance()
	if err := etsched.ValidatePermutation(seed, inst.N()); err != nil {
		return Result{}, err
	}
	log := logger.Component("sa")
	n := inst.N()
	evals := 0

	ev, err := eval.Evaluate(ctx, seed)
	if err != nil {
		return Result{}, err
	}
	evals++

	// Текущее и лучшее решения
	cur := append([]int(nil), seed...)
	curObj, onTime := ev.Objective, ev.OnTime
	best := append([]int(nil), cur...)
	bestObj, bestOnTime := curObj, onTime

	T0, calls, err := s.initialTemperature(ctx, eval, cur, curObj, onTime)
	evals += calls
	if err != nil {
		return Result{}, err
	}
	T := T0

	tested := perJob(s.Cfg.TestedPerJob, n)
	perturbations := perJob(s.Cfg.PerturbationsPerJob, n)
	stag := stagnation{threshold: s.Cfg.StagnationTemperatureRatio * T0, limit: s.Cfg.StageStopCount}

	res := Result{InitialTemperature: T0}
	iterations := 0

	log.Debug().
		Int("jobs", n).
		Float64("t0", T0).
		Int("tested", tested).
		Int("perturbations", perturbations).
		Float64("seed_objective", curObj).
		Msg("annealing started")

	finish := func(reason string) Result {
		res.StopReason = reason
		res.Result = opt.Result{
			Sequence:    best,
			Objective:   bestObj,
			OnTime:      bestOnTime,
			Evaluations: evals,
			Iterations:  iterations,
			Duration:    time.Since(start),
			Meta: map[string]any{
				"initial_temperature": T0,
				"final_temperature":   T,
				"stages":              len(res.Stages),
				"stop":                reason,
			},
		}
		return res
	}

	for k := 0; ; k++ {
		stageBest := bestObj
		st := StageStats{Stage: k, Temperature: T}

		for m := 0; m < tested; m++ {
			// Для поддержки отмены через context
			if err := ctx.Err(); err != nil {
				return finish(StopContext), err
			}
			if s.Cfg.CapAtPerturbations && st.Accepted >= perturbations {
				break
			}

			cand, nb, err := s.propose(inst, s.pick(m, tested), cur, onTime)
			if err != nil {
				return finish(""), err
			}
			cev, err := eval.Evaluate(ctx, cand)
			if err != nil {
				return finish(""), withStage(err, k, m)
			}
			evals++
			iterations++
			st.Tested++

			delta := cev.Objective - curObj
			accept := false
			if delta <= 0 {
				// Улучшающее решение принимаем всегда
				accept = true
			} else {
				// Критерий Метрополиса
				p := math.Exp(-delta / T)
				if s.Rng.Float64() < p {
					accept = true
				}
			}
			if !accept {
				continue
			}

			cur, curObj, onTime = cand, cev.Objective, cev.OnTime
			if curObj < bestObj {
				bestObj, bestOnTime = curObj, onTime
				best = append(best[:0], cur...)
			}
			st.Accepted++
			res.Trace = append(res.Trace, TraceRecord{
				Objective:    curObj,
				Stage:        k,
				Iteration:    m,
				Neighborhood: nb,
				Temperature:  T,
			})
			metrics.AcceptedMoves.WithLabelValues(nb.String()).Inc()
		}

		st.Best = bestObj
		res.Stages = append(res.Stages, st)
		metrics.Stages.Inc()

		// Охлаждение температуры
		T *= s.Cfg.CoolingFactor

		log.Debug().
			Int("stage", k).
			Float64("temperature", st.Temperature).
			Int("tested", st.Tested).
			Int("accepted", st.Accepted).
			Float64("best", bestObj).
			Msg("stage finished")

		if stag.observe(bestObj < stageBest, T) {
			return finish(StopStage), nil
		}
		if relativeStop(res.Trace, s.Cfg.RelativeStopMinStages, s.Cfg.RelativeStopMinPctChange) {
			return finish(StopRelative), nil
		}
		if s.Cfg.MaxStages > 0 && k+1 >= s.Cfg.MaxStages {
			return finish(StopMax), nil
		}
	}
}

// initialTemperature калибрует T0 = mean|delta| / -ln(tau0) по соседям cur.
func (s *Solver) initialTemperature(ctx context.Context, eval *etsched.Evaluator, cur []int, curObj float64, onTime int) (float64, int, error) {
	inst := eval.Instance()
	sum := 0.0
	calls := 0
	for i := 0; i < s.Cfg.TemperatureSamples; i++ {
		cand, _, err := s.propose(inst, s.Cfg.CalibrationNeighborhood, cur, onTime)
		if err != nil {
			return 0, calls, err
		}
		ev, err := eval.Evaluate(ctx, cand)
		if err != nil {
			return 0, calls, err
		}
		calls++
		sum += math.Abs(ev.Objective - curObj)
	}
	mean := sum / float64(s.Cfg.TemperatureSamples)
	if mean <= 0 {
		return 1, calls, nil
	}
	return mean / -math.Log(s.Cfg.InitialAcceptance), calls, nil
}

// pick: первая половина стадии — первый оператор из списка, далее по кругу.
func (s *Solver) pick(m, tested int) Neighborhood {
	nbs := s.Cfg.Neighborhoods
	if len(nbs) == 1 || m < tested/2 {
		return nbs[0]
	}
	return nbs[m%len(nbs)]
}

// propose применяет оператор nb; если для него нет входных данных,
// пробует остальные настроенные операторы, затем все реализованные.
func (s *Solver) propose(inst *etsched.Instance, nb Neighborhood, cur []int, onTime int) ([]int, Neighborhood, error) {
	tried := map[Neighborhood]bool{}
	order := append([]Neighborhood{nb}, s.Cfg.Neighborhoods...)
	for id := NeighborhoodSwapAcrossDue; id <= NeighborhoodRelocate; id++ {
		order = append(order, id)
	}
	for _, op := range order {
		if tried[op] {
			continue
		}
		tried[op] = true
		cand, err := Neighbor(inst, op, cur, onTime, s.Rng)
		if err == nil {
			return cand, op, nil
		}
		if !errs.Is(err, errs.CodeEmptyNeighborhoodInput) {
			return nil, op, err
		}
	}
	return nil, nb, errs.DegenerateInstance(
		"ни один оператор окрестности не применим (работ %d, в срок %d)", len(cur), onTime,
	).WithField("sequence", append([]int(nil), cur...))
}

func perJob(c float64, n int) int {
	v := int(math.Ceil(c * float64(n)))
	if v < 1 {
		return 1
	}
	return v
}

func withStage(err error, stage, iteration int) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e.WithField("stage", stage).WithField("iteration", iteration)
	}
	return err
}
