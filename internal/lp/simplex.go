package lp

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	glp "gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultTolerance — допуск симплекс-метода по умолчанию.
const DefaultTolerance = 1e-9

// startTol — допуск проверки Start на допустимость.
const startTol = 1e-7

// Simplex решает ЛП. Бинарные переменные рассматриваются как
// непрерывные на [0,1] (релаксация).
//
// Если Start допустим, по нему строится базис и задача решается
// симплекс-методом gonum из этого базиса. Иначе, а также если gonum
// базис отверг, работает двойственный симплекс-метод по таблице.
type Simplex struct {
	Tol float64
}

func (s Simplex) tol() float64 {
	if s.Tol > 0 {
		return s.Tol
	}
	return DefaultTolerance
}

func (s Simplex) Solve(ctx context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	if err := ctx.Err(); err != nil {
		return Solution{}, err
	}
	lb, ub := bounds(m)
	if m.Start != nil && m.Feasible(m.Start, startTol) {
		if sol, ok := s.fromStart(m, lb, ub); ok {
			return sol, nil
		}
	}
	return s.dual(m, lb, ub), nil
}

// bounds возвращает копии границ; у бинарных переменных границы
// сужаются до [0,1].
func bounds(m *Model) (lb, ub []float64) {
	lb = make([]float64, len(m.Vars))
	ub = make([]float64, len(m.Vars))
	for j, v := range m.Vars {
		lb[j], ub[j] = v.Lower, v.Upper
		if v.Type == Binary {
			lb[j] = math.Max(lb[j], 0)
			ub[j] = math.Min(ub[j], 1)
		}
	}
	return lb, ub
}

func (s Simplex) dual(m *Model, lb, ub []float64) Solution {
	t, ok := newTableau(m, lb, ub, s.tol())
	if !ok {
		return Solution{Status: Infeasible}
	}
	if status, _ := t.dual(); status != Optimal {
		return Solution{Status: status}
	}
	status, x := t.solution()
	if status != Optimal {
		return Solution{Status: status}
	}
	return Solution{Status: Optimal, Obj: m.Objective(x), X: x}
}

type sparseRow struct {
	cols []int
	vals []float64
	rhs  float64
	eq   bool
}

// standardForm — задача в форме gonum: min c'y, Ay = b, y >= 0.
type standardForm struct {
	a    *mat.Dense
	b, c []float64

	col   []int // столбец переменной модели; -1 — переменная на нижней границе
	slack []int // столбец дополнительной переменной строки или -1
}

// newStandardForm приводит модель с границами lb/ub к стандартной форме:
// x = lb + y; закреплённые переменные (lb == ub) подставляются как
// константы; ">=" умножается на -1; каждое неравенство получает свою
// дополнительную переменную; конечные верхние границы становятся
// строками y <= ub - lb. Столбцы без ненулевых коэффициентов gonum не
// принимает: с c >= 0 они остаются на нижней границе, с c < 0 форма не
// строится. ok == false — форму построить нельзя.
func newStandardForm(m *Model, lb, ub []float64, tol float64) (sf *standardForm, ok bool) {
	n := len(m.Vars)
	col := make([]int, n)
	nCols := 0
	for j := 0; j < n; j++ {
		if lb[j] > ub[j]+tol {
			return nil, false
		}
		if ub[j]-lb[j] <= tol {
			col[j] = -1
			continue
		}
		col[j] = nCols
		nCols++
	}

	rows := make([]sparseRow, 0, len(m.Constrs)+nCols)
	used := make([]int, nCols)
	for _, c := range m.Constrs {
		sign := 1.0
		if c.Sense == GreaterEqual {
			sign = -1
		}
		acc := make(map[int]float64, len(c.Ind))
		rhs := sign * c.RHS
		for k, j := range c.Ind {
			a := sign * c.Val[k]
			rhs -= a * lb[j]
			if col[j] >= 0 {
				acc[col[j]] += a
			}
		}
		r := sparseRow{rhs: rhs, eq: c.Sense == Equal}
		for cj, a := range acc {
			if a != 0 {
				r.cols = append(r.cols, cj)
				r.vals = append(r.vals, a)
			}
		}
		if len(r.cols) == 0 {
			scale := tol * math.Max(1, math.Abs(c.RHS))
			if (r.eq && math.Abs(rhs) > scale) || (!r.eq && rhs < -scale) {
				return nil, false
			}
			continue
		}
		for _, cj := range r.cols {
			used[cj]++
		}
		rows = append(rows, r)
	}
	for j := 0; j < n; j++ {
		if col[j] < 0 || math.IsInf(ub[j], 1) {
			continue
		}
		rows = append(rows, sparseRow{cols: []int{col[j]}, vals: []float64{1}, rhs: ub[j] - lb[j]})
		used[col[j]]++
	}
	if len(rows) == 0 {
		return nil, false
	}

	keep := make([]int, nCols)
	nKeep := 0
	for j := 0; j < n; j++ {
		if col[j] < 0 {
			continue
		}
		if used[col[j]] == 0 {
			if m.Vars[j].Obj < 0 {
				return nil, false
			}
			keep[col[j]] = -1
			continue
		}
		keep[col[j]] = nKeep
		nKeep++
	}

	nIneq := 0
	for _, r := range rows {
		if !r.eq {
			nIneq++
		}
	}
	if len(rows)-nIneq > nKeep {
		return nil, false
	}

	width := nKeep + nIneq
	sf = &standardForm{
		a:     mat.NewDense(len(rows), width, nil),
		b:     make([]float64, len(rows)),
		c:     make([]float64, width),
		col:   make([]int, n),
		slack: make([]int, len(rows)),
	}
	next := nKeep
	for i, r := range rows {
		for k, cj := range r.cols {
			sf.a.Set(i, keep[cj], r.vals[k])
		}
		sf.slack[i] = -1
		if !r.eq {
			sf.a.Set(i, next, 1)
			sf.slack[i] = next
			next++
		}
		sf.b[i] = r.rhs
	}
	for j := 0; j < n; j++ {
		sf.col[j] = -1
		if col[j] >= 0 && keep[col[j]] >= 0 {
			sf.col[j] = keep[col[j]]
			sf.c[sf.col[j]] = m.Vars[j].Obj
		}
	}
	return sf, true
}

// point переводит решение модели в точку стандартной формы.
func (sf *standardForm) point(x, lb []float64) []float64 {
	_, width := sf.a.Dims()
	y := make([]float64, width)
	for j, cj := range sf.col {
		if cj >= 0 {
			y[cj] = math.Max(0, x[j]-lb[j])
		}
	}
	for i, s := range sf.slack {
		if s < 0 {
			continue
		}
		v := sf.b[i]
		row := sf.a.RawRowView(i)
		for k, a := range row {
			if k != s && a != 0 {
				v -= a * y[k]
			}
		}
		y[s] = math.Max(0, v)
	}
	return y
}

// fromStart решает задачу gonum из базиса, в котором Start — базисное
// решение. ok == false — базис не построен или gonum его не принял.
func (s Simplex) fromStart(m *Model, lb, ub []float64) (Solution, bool) {
	tol := s.tol()
	sf, ok := newStandardForm(m, lb, ub, tol)
	if !ok {
		return Solution{}, false
	}
	y0 := sf.point(m.Start, lb)
	zero := tol * math.Max(1, floats.Norm(sf.b, math.Inf(1)))
	basis, ok := vertexBasis(sf.a, y0, sf.slack, zero)
	if !ok {
		return Solution{}, false
	}
	y, err := simplexFrom(sf.c, sf.a, sf.b, tol, basis)
	if err != nil {
		return Solution{}, false
	}

	x := make([]float64, len(m.Vars))
	for j, cj := range sf.col {
		x[j] = lb[j]
		if cj >= 0 {
			x[j] = math.Min(math.Max(lb[j]+y[cj], lb[j]), ub[j])
		}
	}
	return Solution{Status: Optimal, Obj: m.Objective(x), X: x, Warm: true}, true
}

// simplexFrom вызывает gonum с начальным базисом. Недопустимый или
// вырожденный базис gonum отвергает паникой, она возвращается ошибкой.
func simplexFrom(c []float64, a mat.Matrix, b []float64, tol float64, basis []int) (y []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lp: initial basis rejected: %v", r)
		}
	}()
	_, y, err = glp.Simplex(c, a, b, tol, basis)
	return y, err
}

// vertexBasis подбирает базис, в котором точка y (y >= 0, Ay = b)
// является базисным решением: столбцы положительных компонент
// дополняются дополнительными переменными и, если их не хватает,
// другими столбцами до полного ранга. ok == false — столбцы
// положительных компонент линейно зависимы, y не вершина.
func vertexBasis(a *mat.Dense, y []float64, slack []int, zero float64) (basis []int, ok bool) {
	rows, cols := a.Dims()
	e := &eliminator{a: a, pivot: make([]bool, rows)}
	in := make([]bool, cols)
	take := func(j, prefer int) {
		if e.add(j, prefer) {
			basis = append(basis, j)
			in[j] = true
		}
	}

	for j := 0; j < cols; j++ {
		if y[j] <= zero {
			continue
		}
		if len(basis) == rows || !e.add(j, -1) {
			return nil, false
		}
		basis = append(basis, j)
		in[j] = true
	}
	for r := 0; r < rows && len(basis) < rows; r++ {
		if !e.pivot[r] && slack[r] >= 0 && !in[slack[r]] {
			take(slack[r], r)
		}
	}
	for j := 0; j < cols && len(basis) < rows; j++ {
		if !in[j] {
			take(j, -1)
		}
	}
	return basis, len(basis) == rows
}

// eliminator — исключение Гаусса по столбцам, добавляемым по одному.
type eliminator struct {
	a     *mat.Dense
	pivot []bool      // строка уже ведущая
	rows  []int       // ведущая строка k-го принятого столбца
	w     [][]float64 // принятые столбцы после исключения
}

// add приводит столбец j по принятым и принимает его, если остаток
// ненулевой. prefer — желательная ведущая строка или -1.
func (e *eliminator) add(j, prefer int) bool {
	v := mat.Col(nil, j, e.a)
	for k, r := range e.rows {
		if f := v[r]; f != 0 {
			floats.AddScaled(v, -f, e.w[k])
			v[r] = 0
		}
	}
	r := -1
	if prefer >= 0 && !e.pivot[prefer] && math.Abs(v[prefer]) > pivotTol {
		r = prefer
	} else {
		best := pivotTol
		for i, p := range e.pivot {
			if !p && math.Abs(v[i]) > best {
				r, best = i, math.Abs(v[i])
			}
		}
	}
	if r < 0 {
		return false
	}
	floats.Scale(1/v[r], v)
	v[r] = 1
	e.pivot[r] = true
	e.rows = append(e.rows, r)
	e.w = append(e.w, v)
	return true
}
