// Package fixopt — уточнение последовательности скользящим окном:
// работы вне окна закреплены на своих моментах завершения, порядок и
// моменты работ окна выбирает MILP с бинарными переменными
// предшествования (big-M).
package fixopt

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"commonDue/internal/errs"
	"commonDue/internal/etsched"
	"commonDue/internal/logger"
	"commonDue/internal/lp"
	"commonDue/internal/metrics"
	"commonDue/internal/opt"
)

// improveTol — минимальное улучшение, при котором окно принимается.
const improveTol = 1e-9

// TraceRecord — состояние рекорда после окна.
type TraceRecord struct {
	Window    int
	Begin     int
	End       int
	Objective float64
	Sequence  []int
	Improved  bool
	Nodes     int
}

type Result struct {
	opt.Result
	Trace []TraceRecord
}

// Refiner — fix-and-optimize поверх MILP-решателя.
type Refiner struct {
	Cfg    Config
	Solver lp.Solver
}

func New(cfg Config, solver lp.Solver) (*Refiner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if solver == nil {
		return nil, fmt.Errorf("nil solver")
	}
	return &Refiner{Cfg: cfg, Solver: solver}, nil
}

// window — переменные MILP одного окна.
type window struct {
	model  *lp.Model
	begin  int
	end    int
	c      []int // по номеру работы
	early  []int
	tardy  []int
	offset int
	prec   map[[2]int]int // (i,j) -> b_ij, i раньше j при b_ij = 1
}

// Refine проходит окнами [begin, begin+WindowSize) с шагом Jump и
// возвращает лучший рекорд. Рекорд заменяется только строго лучшим
// решением; трасса получает запись после каждого окна.
func (r *Refiner) Refine(ctx context.Context, inst *etsched.Instance, seq []int, obj float64) (Result, error) {
	start := time.Now()

	if err := r.Cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := etsched.ValidatePermutation(seq, inst.N()); err != nil {
		return Result{}, err
	}
	log := logger.Component("fixopt")

	n := inst.N()
	inc := append([]int(nil), seq...)
	incObj := obj
	var trace []TraceRecord
	solves := 0

	finish := func() Result {
		return Result{
			Result: opt.Result{
				Sequence:    inc,
				Objective:   incObj,
				OnTime:      onTime(inst, inc),
				Evaluations: solves,
				Iterations:  len(trace),
				Duration:    time.Since(start),
				Meta: map[string]any{
					"window_size": r.Cfg.WindowSize,
					"jump":        r.Cfg.Jump,
				},
			},
			Trace: trace,
		}
	}

	for w, begin := 0, 0; begin < n; w, begin = w+1, begin+r.Cfg.Jump {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}
		end := begin + r.Cfg.WindowSize
		if end > n {
			end = n
		}

		win := buildWindow(inst, inc, begin, end)
		solveStart := time.Now()
		sol, err := r.Solver.Solve(ctx, win.model)
		solves++
		status := "error"
		if err == nil {
			status = sol.Status.String()
		}
		metrics.ObserveSolve("milp", status, time.Since(solveStart))

		if err != nil {
			if ctx.Err() != nil {
				return finish(), err
			}
			return finish(), windowError(errs.SolverInfeasible(err, "fix-and-optimize window"), inc, begin, end)
		}
		// Лимит узлов не ошибка, если найдено допустимое решение.
		if sol.Status != lp.Optimal && !(sol.Status == lp.NodeLimit && sol.X != nil) {
			return finish(), windowError(
				errs.SolverInfeasible(nil, "fix-and-optimize window: solver status %s", sol.Status).
					WithField("status", sol.Status.String()),
				inc, begin, end,
			)
		}

		// Порядок окна переоценивается заново: рекорд хранит стоимость
		// самой последовательности, а не значение MILP.
		cand := win.sequence(inst, inc, sol.X)
		if err := etsched.ValidatePermutation(cand, n); err != nil {
			return finish(), windowError(errs.SolverInfeasible(err, "fix-and-optimize window: bad order"), inc, begin, end)
		}
		_, candObj := etsched.BestOffset(inst, cand)
		improved := candObj < incObj-improveTol
		if improved {
			inc, incObj = cand, candObj
		}
		metrics.Windows.WithLabelValues(fmt.Sprint(improved)).Inc()

		trace = append(trace, TraceRecord{
			Window:    w,
			Begin:     begin,
			End:       end,
			Objective: incObj,
			Sequence:  append([]int(nil), inc...),
			Improved:  improved,
			Nodes:     sol.Nodes,
		})
		log.Debug().
			Int("window", w).
			Int("begin", begin).
			Int("end", end).
			Int("nodes", sol.Nodes).
			Float64("window_objective", sol.Obj).
			Float64("candidate", candObj).
			Str("status", sol.Status.String()).
			Float64("incumbent", incObj).
			Bool("improved", improved).
			Msg("window solved")
	}
	return finish(), nil
}

// buildWindow строит MILP окна [begin, end) для рекорда inc.
//
// Работы вне окна закреплены (lb = ub = момент завершения по профилю).
// Работы окна занимают промежуток между закреплённым префиксом и
// суффиксом; для каждой пары окна одна бинарная переменная задаёт
// порядок. M — длина промежутка окна. Момент завершения работы окна
// равен концу префикса плюс длительности её самой и работ перед ней:
//
//	C_i = prefixEnd + p_i + sum(p_j b_ji) + sum(p_j (1 - b_ij))
func buildWindow(inst *etsched.Instance, inc []int, begin, end int) *window {
	n := inst.N()
	due := inst.DueDate
	d := etsched.Profile(inst, inc)

	prefixEnd := 0.0
	if begin > 0 {
		prefixEnd = d[begin-1]
	}
	suffixStart := d[end-1]
	bigM := suffixStart - prefixEnd

	m := lp.NewModel(fmt.Sprintf("window_%d_%d", begin, end))
	w := &window{
		model: m,
		begin: begin,
		end:   end,
		c:     make([]int, n),
		early: make([]int, n),
		tardy: make([]int, n),
		prec:  make(map[[2]int]int),
	}

	// Границы сначала освобождаются, затем закрепляются работы вне окна.
	for _, job := range inc {
		w.c[job] = m.AddVar(0, 0, lp.Inf, lp.Continuous, fmt.Sprintf("C_%d", job))
	}
	for k, job := range inc {
		if k < begin || k >= end {
			m.SetBounds(w.c[job], d[k], d[k])
		}
	}
	for _, job := range inc {
		w.early[job] = m.AddVar(inst.Jobs[job].Alpha, 0, lp.Inf, lp.Continuous, fmt.Sprintf("e_%d", job))
		w.tardy[job] = m.AddVar(inst.Jobs[job].Beta, 0, lp.Inf, lp.Continuous, fmt.Sprintf("t_%d", job))
	}
	w.offset = m.AddVar(0, 0, due, lp.Continuous, "offset")

	for _, job := range inc {
		c := w.c[job]
		m.AddConstr([]int{w.early[job], c, w.offset}, []float64{1, 1, 1}, lp.GreaterEqual, due, fmt.Sprintf("early_%d", job))
		m.AddConstr([]int{w.tardy[job], c, w.offset}, []float64{1, -1, -1}, lp.GreaterEqual, -due, fmt.Sprintf("tardy_%d", job))
	}

	free := inc[begin:end]
	for _, job := range free {
		p := inst.P(job)
		m.AddConstr([]int{w.c[job]}, []float64{1}, lp.GreaterEqual, prefixEnd+p, fmt.Sprintf("after_prefix_%d", job))
		m.AddConstr([]int{w.c[job]}, []float64{1}, lp.LessEqual, suffixStart, fmt.Sprintf("before_suffix_%d", job))
	}
	for a := 0; a < len(free); a++ {
		for b := a + 1; b < len(free); b++ {
			i, j := free[a], free[b]
			ci, cj := w.c[i], w.c[j]
			y := m.AddVar(0, 0, 1, lp.Binary, fmt.Sprintf("b_%d_%d", i, j))
			w.prec[[2]int{i, j}] = y
			// y = 1: i раньше j
			m.AddConstr([]int{ci, cj, y}, []float64{1, -1, bigM}, lp.LessEqual, bigM-inst.P(j), fmt.Sprintf("order_%d_%d", i, j))
			// y = 0: j раньше i
			m.AddConstr([]int{cj, ci, y}, []float64{1, -1, -bigM}, lp.LessEqual, -inst.P(i), fmt.Sprintf("order_%d_%d", j, i))
		}
	}
	for a, i := range free {
		ind := []int{w.c[i]}
		val := []float64{1}
		rhs := prefixEnd + inst.P(i)
		for b, j := range free {
			switch {
			case b > a:
				ind = append(ind, w.prec[[2]int{i, j}])
				val = append(val, inst.P(j))
				rhs += inst.P(j)
			case b < a:
				ind = append(ind, w.prec[[2]int{j, i}])
				val = append(val, -inst.P(j))
			}
		}
		m.AddConstr(ind, val, lp.Equal, rhs, fmt.Sprintf("completion_%d", i))
	}

	m.Start = w.start(inst, inc, d)
	return w
}

// start — допустимое начальное решение: порядок рекорда и лучший сдвиг.
func (w *window) start(inst *etsched.Instance, inc []int, d []float64) []float64 {
	due := inst.DueDate
	off, _ := etsched.BestOffset(inst, inc)
	x := make([]float64, w.model.NumVars())
	for k, job := range inc {
		x[w.c[job]] = d[k]
		x[w.early[job]] = math.Max(0, due-d[k]-off)
		x[w.tardy[job]] = math.Max(0, d[k]+off-due)
	}
	x[w.offset] = off
	for _, y := range w.prec {
		// Пары строятся в порядке рекорда, поэтому i всегда раньше j.
		x[y] = 1
	}
	return x
}

// sequence восстанавливает порядок по моментам начала C - p. При равном
// начале первой идёт работа, завершившаяся раньше (нулевой
// длительности), затем — по прежней позиции.
func (w *window) sequence(inst *etsched.Instance, inc []int, x []float64) []int {
	type slot struct {
		job   int
		pos   int
		start float64
		done  float64
	}
	slots := make([]slot, len(inc))
	for k, job := range inc {
		c := x[w.c[job]]
		slots[k] = slot{job: job, pos: k, start: round6(c - inst.P(job)), done: round6(c)}
	}
	sort.SliceStable(slots, func(a, b int) bool {
		if slots[a].start != slots[b].start {
			return slots[a].start < slots[b].start
		}
		if slots[a].done != slots[b].done {
			return slots[a].done < slots[b].done
		}
		return slots[a].pos < slots[b].pos
	})
	out := make([]int, len(slots))
	for k, s := range slots {
		out[k] = s.job
	}
	return out
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

func windowError(e *errs.Error, inc []int, begin, end int) error {
	return e.
		WithField("sequence", append([]int(nil), inc...)).
		WithField("window_begin", begin).
		WithField("window_end", end)
}

func onTime(inst *etsched.Instance, seq []int) int {
	off, _ := etsched.BestOffset(inst, seq)
	return etsched.OnTime(inst, seq, off)
}
