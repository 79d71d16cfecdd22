package etsched

import (
	"context"
	"fmt"
	"math"
	"time"

	"commonDue/internal/errs"
	"commonDue/internal/lp"
	"commonDue/internal/metrics"
)

// Evaluation — результат оценки последовательности.
type Evaluation struct {
	Objective float64
	OnTime    int     // работ, завершённых не позже D
	Offset    float64 // оптимальный общий сдвиг
}

// Evaluator строит для фиксированной последовательности ЛП с общим
// сдвигом и решает её внешним решателем.
type Evaluator struct {
	inst   *Instance
	solver lp.Solver
	calls  int
}

func NewEvaluator(inst *Instance, solver lp.Solver) (*Evaluator, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if solver == nil {
		return nil, fmt.Errorf("nil solver")
	}
	return &Evaluator{inst: inst, solver: solver}, nil
}

func (e *Evaluator) Instance() *Instance { return e.inst }

// Calls — число вызовов Evaluate.
func (e *Evaluator) Calls() int { return e.calls }

// Model возвращает ЛП для последовательности и индекс переменной сдвига.
//
//	min  sum(alpha_i e_i + beta_i t_i)
//	e_i >= D - d_i - offset
//	t_i >= d_i - D + offset
//	e_i, t_i >= 0, 0 <= offset <= D
//
// Start модели — вершина при сдвиге BestOffset.
func (e *Evaluator) Model(seq []int) (*lp.Model, int) {
	inst := e.inst
	n := len(seq)
	d := Profile(inst, seq)
	due := inst.DueDate

	m := lp.NewModel("sequence")
	early := make([]int, n)
	tardy := make([]int, n)
	for k, job := range seq {
		early[k] = m.AddVar(inst.Jobs[job].Alpha, 0, lp.Inf, lp.Continuous, fmt.Sprintf("e_%d", job))
		tardy[k] = m.AddVar(inst.Jobs[job].Beta, 0, lp.Inf, lp.Continuous, fmt.Sprintf("t_%d", job))
	}
	offset := m.AddVar(0, 0, due, lp.Continuous, "offset")

	for k, job := range seq {
		m.AddConstr([]int{early[k], offset}, []float64{1, 1}, lp.GreaterEqual, due-d[k], fmt.Sprintf("early_%d", job))
		m.AddConstr([]int{tardy[k], offset}, []float64{1, -1}, lp.GreaterEqual, d[k]-due, fmt.Sprintf("tardy_%d", job))
	}

	off, _ := BestOffset(inst, seq)
	m.Start = make([]float64, m.NumVars())
	for k := range seq {
		m.Start[early[k]] = math.Max(0, due-d[k]-off)
		m.Start[tardy[k]] = math.Max(0, d[k]+off-due)
	}
	m.Start[offset] = off
	return m, offset
}

// Evaluate решает ЛП для seq. Любой статус, кроме оптимального,
// возвращается как SOLVER_INFEASIBLE с последовательностью в полях.
func (e *Evaluator) Evaluate(ctx context.Context, seq []int) (Evaluation, error) {
	if err := ValidatePermutation(seq, e.inst.N()); err != nil {
		return Evaluation{}, err
	}
	e.calls++
	metrics.Evaluations.Inc()

	m, offsetVar := e.Model(seq)
	start := time.Now()
	sol, err := e.solver.Solve(ctx, m)
	status := "error"
	if err == nil {
		status = sol.Status.String()
	}
	metrics.ObserveSolve("lp", status, time.Since(start))

	if err != nil {
		if ctx.Err() != nil {
			return Evaluation{}, err
		}
		return Evaluation{}, errs.SolverInfeasible(err, "sequence evaluation").WithField("sequence", clone(seq))
	}
	if sol.Status != lp.Optimal {
		return Evaluation{}, errs.SolverInfeasible(nil, "sequence evaluation: solver status %s", sol.Status).
			WithField("sequence", clone(seq)).
			WithField("status", sol.Status.String())
	}

	obj := sol.Obj
	if obj < 0 {
		obj = 0
	}
	offset := sol.X[offsetVar]
	return Evaluation{
		Objective: obj,
		OnTime:    OnTime(e.inst, seq, offset),
		Offset:    offset,
	}, nil
}
