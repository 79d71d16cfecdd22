package lp

import (
	"context"
	"math"
)

// DefaultIntTolerance — допуск целочисленности бинарных переменных.
const DefaultIntTolerance = 1e-6

// warmBudget — сколько элементов таблиц могут держать ожидающие узлы.
// Сверх бюджета узел дорешивается из корневой таблицы.
const warmBudget = 1 << 23

// BranchAndBound решает модели с бинарными переменными поиском в глубину.
// Релаксации решаются двойственным симплекс-методом; дочерний узел
// дорешивается из таблицы родителя. Модели без бинарных переменных
// передаются в LP напрямую.
type BranchAndBound struct {
	LP Simplex

	// MaxNodes ограничивает число узлов; 0 — без ограничения.
	// Исчерпание лимита даёт статус NodeLimit и лучшее найденное решение.
	MaxNodes int

	IntTol float64
}

type bbNode struct {
	base   *tableau
	lb, ub []float64
}

func (bb BranchAndBound) intTol() float64 {
	if bb.IntTol > 0 {
		return bb.IntTol
	}
	return DefaultIntTolerance
}

func (bb BranchAndBound) Solve(ctx context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	if !m.HasBinary() {
		return bb.LP.Solve(ctx, m)
	}
	if err := ctx.Err(); err != nil {
		return Solution{}, err
	}

	itol := bb.intTol()
	best := math.Inf(1)
	var bestX []float64
	warm := false

	// Начальное решение становится рекордом, если оно допустимо.
	if m.Start != nil && m.Feasible(m.Start, itol) {
		bestX = roundBinaries(m, m.Start)
		best = m.Objective(bestX)
		warm = true
	}
	done := func(nodes int) Solution {
		if bestX == nil {
			return Solution{Status: Infeasible, Nodes: nodes}
		}
		return Solution{Status: Optimal, Obj: best, X: bestX, Nodes: nodes, Warm: warm}
	}

	lb, ub := bounds(m)
	root, ok := newTableau(m, lb, ub, bb.LP.tol())
	if !ok {
		return done(0), nil
	}
	root.refs = -1

	stack := []bbNode{{base: root, lb: lb, ub: ub}}
	nodes := 0
	stored := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return Solution{}, err
		}
		if bb.MaxNodes > 0 && nodes >= bb.MaxNodes {
			if bestX == nil {
				return Solution{Status: NodeLimit, Nodes: nodes}, nil
			}
			return Solution{Status: NodeLimit, Obj: best, X: bestX, Nodes: nodes, Warm: warm}, nil
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		// Последний ожидающий потомок забирает таблицу без копирования.
		t := node.base
		if t.refs > 0 {
			t.refs--
		}
		if t.refs == 0 {
			stored -= t.size()
		} else {
			t = t.clone()
		}

		if !t.setBounds(node.lb, node.ub) {
			continue
		}
		status, _ := t.dual()
		switch status {
		case Optimal:
		case Infeasible:
			continue
		default:
			return Solution{Status: status, Nodes: nodes}, nil
		}
		status, x := t.solution()
		if status != Optimal {
			return Solution{Status: status, Nodes: nodes}, nil
		}
		obj := m.Objective(x)

		// Отсечение по рекорду
		if obj >= best-gapTol(best) {
			continue
		}

		j := firstFractional(m, x, itol)
		if j < 0 {
			bestX = roundBinaries(m, x)
			best = m.Objective(bestX)
			warm = false
			continue
		}

		base := root
		if stored+t.size() <= warmBudget {
			t.refs = 2
			stored += t.size()
			base = t
		}
		down := bbNode{base: base, lb: node.lb, ub: cloneWith(node.ub, j, 0)}
		up := bbNode{base: base, lb: cloneWith(node.lb, j, 1), ub: node.ub}
		// Ближайшая к значению релаксации ветвь исследуется первой
		if x[j] >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}
	return done(nodes), nil
}

func gapTol(best float64) float64 {
	if math.IsInf(best, 1) {
		return 0
	}
	return 1e-9 * math.Max(1, math.Abs(best))
}

// firstFractional возвращает первую по номеру бинарную переменную с
// дробным значением или -1, если решение целочисленно.
func firstFractional(m *Model, x []float64, tol float64) int {
	for j, v := range m.Vars {
		if v.Type != Binary {
			continue
		}
		frac := x[j] - math.Floor(x[j])
		if frac > tol && frac < 1-tol {
			return j
		}
	}
	return -1
}

func roundBinaries(m *Model, x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for j, v := range m.Vars {
		if v.Type == Binary {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

func cloneWith(src []float64, j int, v float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	out[j] = v
	return out
}
