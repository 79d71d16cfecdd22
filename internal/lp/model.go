// Package lp — граница между ядром и решателем ЛП/СЦЛП.
//
// Ядро строит Model (переменные с границами и коэффициентом целевой
// функции, разреженные линейные ограничения, бинарные переменные для
// СЦЛП) и передаёт её Solver. Решатель возвращает Solution со статусом;
// любой статус, кроме Optimal, вызывающая сторона считает отказом.
package lp

import (
	"context"
	"fmt"
	"math"
)

// VarType — тип переменной.
type VarType int

const (
	Continuous VarType = iota
	Binary
)

// Sense — знак ограничения.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	}
	return fmt.Sprintf("Sense(%d)", int(s))
}

// Inf — бесконечная верхняя граница.
var Inf = math.Inf(1)

type Var struct {
	Name  string
	Obj   float64
	Lower float64
	Upper float64
	Type  VarType
}

// Constraint — sum(Val[k] * x[Ind[k]]) Sense RHS.
type Constraint struct {
	Name  string
	Ind   []int
	Val   []float64
	Sense Sense
	RHS   float64
}

// Model — задача минимизации.
type Model struct {
	Name    string
	Vars    []Var
	Constrs []Constraint

	// Start — необязательное начальное допустимое решение (по одному
	// значению на переменную). Недопустимый Start игнорируется.
	Start []float64
}

func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddVar добавляет переменную и возвращает её индекс.
func (m *Model) AddVar(obj, lb, ub float64, typ VarType, name string) int {
	m.Vars = append(m.Vars, Var{Name: name, Obj: obj, Lower: lb, Upper: ub, Type: typ})
	return len(m.Vars) - 1
}

// AddConstr добавляет ограничение. Срезы копируются.
func (m *Model) AddConstr(ind []int, val []float64, sense Sense, rhs float64, name string) {
	c := Constraint{
		Name:  name,
		Ind:   append([]int(nil), ind...),
		Val:   append([]float64(nil), val...),
		Sense: sense,
		RHS:   rhs,
	}
	m.Constrs = append(m.Constrs, c)
}

// SetBounds переустанавливает границы переменной.
func (m *Model) SetBounds(v int, lb, ub float64) {
	m.Vars[v].Lower = lb
	m.Vars[v].Upper = ub
}

func (m *Model) NumVars() int { return len(m.Vars) }

func (m *Model) NumConstrs() int { return len(m.Constrs) }

// HasBinary сообщает, есть ли в модели бинарные переменные.
func (m *Model) HasBinary() bool {
	for _, v := range m.Vars {
		if v.Type == Binary {
			return true
		}
	}
	return false
}

// Objective вычисляет значение целевой функции на x.
func (m *Model) Objective(x []float64) float64 {
	obj := 0.0
	for j, v := range m.Vars {
		obj += v.Obj * x[j]
	}
	return obj
}

// Feasible проверяет границы, ограничения и целочисленность x.
func (m *Model) Feasible(x []float64, tol float64) bool {
	if len(x) != len(m.Vars) {
		return false
	}
	for j, v := range m.Vars {
		if x[j] < v.Lower-tol || x[j] > v.Upper+tol {
			return false
		}
		if v.Type == Binary && math.Abs(x[j]-math.Round(x[j])) > tol {
			return false
		}
	}
	for _, c := range m.Constrs {
		lhs := 0.0
		for k, j := range c.Ind {
			lhs += c.Val[k] * x[j]
		}
		scale := tol * math.Max(1, math.Abs(c.RHS))
		switch c.Sense {
		case LessEqual:
			if lhs > c.RHS+scale {
				return false
			}
		case GreaterEqual:
			if lhs < c.RHS-scale {
				return false
			}
		case Equal:
			if math.Abs(lhs-c.RHS) > scale {
				return false
			}
		}
	}
	return true
}

// Validate проверяет структуру модели: индексы, длины, конечность
// нижних границ.
func (m *Model) Validate() error {
	if m == nil {
		return fmt.Errorf("nil model")
	}
	for j, v := range m.Vars {
		if math.IsInf(v.Lower, 0) || math.IsNaN(v.Lower) {
			return fmt.Errorf("var %d (%s): lower bound must be finite (got %v)", j, v.Name, v.Lower)
		}
		if math.IsNaN(v.Upper) || math.IsInf(v.Upper, -1) {
			return fmt.Errorf("var %d (%s): invalid upper bound %v", j, v.Name, v.Upper)
		}
		if math.IsNaN(v.Obj) || math.IsInf(v.Obj, 0) {
			return fmt.Errorf("var %d (%s): objective coefficient must be finite", j, v.Name)
		}
	}
	for i, c := range m.Constrs {
		if len(c.Ind) != len(c.Val) {
			return fmt.Errorf("constr %d (%s): %d indices vs %d values", i, c.Name, len(c.Ind), len(c.Val))
		}
		for _, j := range c.Ind {
			if j < 0 || j >= len(m.Vars) {
				return fmt.Errorf("constr %d (%s): var index %d out of range [0,%d)", i, c.Name, j, len(m.Vars))
			}
		}
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("constr %d (%s): rhs must be finite", i, c.Name)
		}
	}
	if m.Start != nil && len(m.Start) != len(m.Vars) {
		return fmt.Errorf("start has %d values for %d vars", len(m.Start), len(m.Vars))
	}
	return nil
}

// Status — итог решения.
type Status int

const (
	Optimal Status = iota + 1
	Infeasible
	Unbounded
	NodeLimit
	NumericError
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case NodeLimit:
		return "node_limit"
	case NumericError:
		return "numeric_error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Solution — ответ решателя. X и Obj заполнены только при Optimal
// (при NodeLimit — лучшим найденным решением, если оно есть).
type Solution struct {
	Status Status
	Obj    float64
	X      []float64
	Nodes  int

	// Warm — ответ получен из Start: ЛП решена из построенного по Start
	// базиса, у СЦЛП рекордом осталось начальное решение.
	Warm bool
}

// Solver — контракт решателя.
type Solver interface {
	Solve(ctx context.Context, m *Model) (Solution, error)
}
