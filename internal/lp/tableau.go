package lp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// pivotTol — минимальный модуль ведущего элемента.
const pivotTol = 1e-9

// boxScale — множитель искусственной границы для переменных с
// отрицательной стоимостью и бесконечной верхней границей.
const boxScale = 1e6

// tableau — плотная симплекс-таблица B^-1·A двойственного
// симплекс-метода с двусторонними границами переменных.
//
// Столбцы: переменные модели, затем по одной дополнительной переменной
// на строку (коэффициент +1, границы [0,inf) или [0,0] для равенств).
// Строки с одной переменной не попадают в таблицу, а сужают её границы.
// Начальный базис из дополнительных переменных двойственно допустим:
// небазисная переменная стоит на нижней границе при c >= 0 и на верхней
// при c < 0. Границы узла ветвления меняются без потери двойственной
// допустимости, поэтому узел дорешивается из таблицы родителя.
type tableau struct {
	nv   int // переменных модели
	rows int
	cols int

	a *mat.Dense
	d []float64 // приведённые стоимости

	plb, pub []float64 // границы после сведения строк-синглтонов
	lb, ub   []float64 // границы текущего узла
	boxed    []bool
	box      float64

	x     []float64
	upper []bool // небазисная переменная на верхней границе
	basis []int
	pos   []int // строка базисной переменной или -1

	tol float64

	// refs — число ожидающих узлов, дорешиваемых из этой таблицы;
	// -1 у корня, который всегда копируется.
	refs int
}

// newTableau строит таблицу модели с границами lb/ub. ok == false
// означает, что недопустимость видна уже по строкам и границам.
func newTableau(m *Model, lb, ub []float64, tol float64) (t *tableau, ok bool) {
	n := len(m.Vars)
	plb := append([]float64(nil), lb...)
	pub := append([]float64(nil), ub...)

	var rows []sparseRow
	for _, c := range m.Constrs {
		sign := 1.0
		if c.Sense == GreaterEqual {
			sign = -1
		}
		acc := make(map[int]float64, len(c.Ind))
		order := make([]int, 0, len(c.Ind))
		for k, j := range c.Ind {
			if _, seen := acc[j]; !seen {
				order = append(order, j)
			}
			acc[j] += sign * c.Val[k]
		}
		r := sparseRow{rhs: sign * c.RHS, eq: c.Sense == Equal}
		for _, j := range order {
			if acc[j] != 0 {
				r.cols = append(r.cols, j)
				r.vals = append(r.vals, acc[j])
			}
		}
		switch len(r.cols) {
		case 0:
			scale := tol * math.Max(1, math.Abs(c.RHS))
			if (r.eq && math.Abs(r.rhs) > scale) || (!r.eq && r.rhs < -scale) {
				return nil, false
			}
		case 1:
			j, v := r.cols[0], r.rhs/r.vals[0]
			switch {
			case r.eq:
				plb[j] = math.Max(plb[j], v)
				pub[j] = math.Min(pub[j], v)
			case r.vals[0] > 0:
				pub[j] = math.Min(pub[j], v)
			default:
				plb[j] = math.Max(plb[j], v)
			}
		default:
			rows = append(rows, r)
		}
	}
	for j := 0; j < n; j++ {
		if plb[j] > pub[j]+tol*math.Max(1, math.Abs(plb[j])) {
			return nil, false
		}
		if pub[j] < plb[j] {
			pub[j] = plb[j]
		}
	}

	nr := len(rows)
	nc := n + nr
	t = &tableau{
		nv:    n,
		rows:  nr,
		cols:  nc,
		d:     make([]float64, nc),
		plb:   make([]float64, nc),
		pub:   make([]float64, nc),
		boxed: make([]bool, nc),
		x:     make([]float64, nc),
		upper: make([]bool, nc),
		basis: make([]int, nr),
		pos:   make([]int, nc),
		tol:   tol,
	}
	if nr > 0 {
		t.a = mat.NewDense(nr, nc, nil)
	}
	copy(t.plb, plb)
	copy(t.pub, pub)
	scale := 1.0
	for i, r := range rows {
		if !r.eq {
			t.pub[n+i] = math.Inf(1)
		}
		scale = math.Max(scale, math.Abs(r.rhs))
	}
	for j := 0; j < n; j++ {
		scale = math.Max(scale, math.Abs(plb[j]))
		if !math.IsInf(pub[j], 1) {
			scale = math.Max(scale, math.Abs(pub[j]))
		}
	}
	t.box = boxScale * scale
	t.lb = append([]float64(nil), t.plb...)
	t.ub = append([]float64(nil), t.pub...)

	for j := 0; j < n; j++ {
		t.d[j] = m.Vars[j].Obj
		t.pos[j] = -1
		if t.d[j] < 0 {
			if math.IsInf(t.ub[j], 1) {
				t.ub[j] = t.lb[j] + t.box
				t.boxed[j] = true
			}
			t.upper[j] = true
			t.x[j] = t.ub[j]
		} else {
			t.x[j] = t.lb[j]
		}
	}
	for i, r := range rows {
		s := n + i
		row := t.a.RawRowView(i)
		v := r.rhs
		for k, j := range r.cols {
			row[j] = r.vals[k]
			v -= r.vals[k] * t.x[j]
		}
		row[s] = 1
		t.basis[i] = s
		t.pos[s] = i
		t.x[s] = v
	}
	return t, true
}

func (t *tableau) size() int { return t.rows * t.cols }

func (t *tableau) clone() *tableau {
	u := *t
	if t.a != nil {
		u.a = mat.DenseCopyOf(t.a)
	}
	u.d = append([]float64(nil), t.d...)
	u.lb = append([]float64(nil), t.lb...)
	u.ub = append([]float64(nil), t.ub...)
	u.x = append([]float64(nil), t.x...)
	u.upper = append([]bool(nil), t.upper...)
	u.basis = append([]int(nil), t.basis...)
	u.pos = append([]int(nil), t.pos...)
	u.refs = 0
	return &u
}

// setBounds переносит в таблицу границы узла (пересечённые с
// границами после сведения). Небазисные переменные переезжают на новую
// границу, базисные значения пересчитываются. false — границы пусты.
func (t *tableau) setBounds(lb, ub []float64) bool {
	for j := 0; j < t.nv; j++ {
		l := math.Max(t.plb[j], lb[j])
		u := math.Min(t.pub[j], ub[j])
		if t.boxed[j] && math.IsInf(u, 1) {
			u = l + t.box
		}
		if u < l-t.tol*math.Max(1, math.Abs(l)) {
			return false
		}
		if u < l {
			u = l
		}
		t.lb[j], t.ub[j] = l, u
		if t.pos[j] >= 0 {
			continue
		}
		next := l
		if t.upper[j] {
			if math.IsInf(u, 1) {
				t.upper[j] = false
			} else {
				next = u
			}
		}
		if delta := next - t.x[j]; delta != 0 {
			for i := 0; i < t.rows; i++ {
				if aij := t.a.At(i, j); aij != 0 {
					t.x[t.basis[i]] -= aij * delta
				}
			}
			t.x[j] = next
		}
	}
	return true
}

func (t *tableau) violation(j int) (float64, bool) {
	v := t.x[j]
	if v < t.lb[j]-t.tol*math.Max(1, math.Abs(t.lb[j])) {
		return t.lb[j] - v, true
	}
	if v > t.ub[j]+t.tol*math.Max(1, math.Abs(t.ub[j])) {
		return v - t.ub[j], false
	}
	return 0, false
}

// dual доводит таблицу до оптимума двойственным симплекс-методом.
// Возвращает Optimal, Infeasible или NumericError (лимит итераций).
func (t *tableau) dual() (Status, int) {
	maxIter := 50*(t.rows+t.cols) + 1000
	for it := 1; ; it++ {
		if it > maxIter {
			return NumericError, it
		}

		// Уходит базисная переменная с наибольшим нарушением границы.
		r, worst, below := -1, 0.0, false
		for i := 0; i < t.rows; i++ {
			inf, lo := t.violation(t.basis[i])
			if inf > worst {
				r, worst, below = i, inf, lo
			}
		}
		if r < 0 {
			return Optimal, it
		}
		leave := t.basis[r]
		target := t.ub[leave]
		if below {
			target = t.lb[leave]
		}

		row := t.a.RawRowView(r)
		q, best, bestAbs := -1, math.Inf(1), 0.0
		for k := 0; k < t.cols; k++ {
			if t.pos[k] >= 0 || t.ub[k]-t.lb[k] <= 0 {
				continue
			}
			alpha := row[k]
			if math.Abs(alpha) <= pivotTol {
				continue
			}
			var eligible bool
			if below {
				eligible = (!t.upper[k] && alpha < 0) || (t.upper[k] && alpha > 0)
			} else {
				eligible = (!t.upper[k] && alpha > 0) || (t.upper[k] && alpha < 0)
			}
			if !eligible {
				continue
			}
			ratio := math.Abs(t.d[k]) / math.Abs(alpha)
			if ratio < best-1e-12 || (ratio <= best+1e-12 && math.Abs(alpha) > bestAbs) {
				q, best, bestAbs = k, ratio, math.Abs(alpha)
			}
		}
		if q < 0 {
			return Infeasible, it
		}
		t.pivot(r, q, leave, target, !below)
	}
}

// pivot вводит столбец q в базис вместо переменной строки r, которая
// уходит на границу target.
func (t *tableau) pivot(r, q, leave int, target float64, atUpper bool) {
	row := t.a.RawRowView(r)
	alpha := row[q]
	theta := (t.x[leave] - target) / alpha
	for i := 0; i < t.rows; i++ {
		if aiq := t.a.At(i, q); aiq != 0 {
			t.x[t.basis[i]] -= aiq * theta
		}
	}
	t.x[q] += theta
	t.x[leave] = target
	t.upper[leave] = atUpper

	floats.Scale(1/alpha, row)
	row[q] = 1
	for i := 0; i < t.rows; i++ {
		if i == r {
			continue
		}
		ri := t.a.RawRowView(i)
		if f := ri[q]; f != 0 {
			floats.AddScaled(ri, -f, row)
			ri[q] = 0
		}
	}
	if dq := t.d[q]; dq != 0 {
		floats.AddScaled(t.d, -dq, row)
	}
	t.d[q] = 0

	t.basis[r] = q
	t.pos[q] = r
	t.pos[leave] = -1
}

// solution — значения переменных модели. Переменная, упёршаяся в
// искусственную границу, означает неограниченность.
func (t *tableau) solution() (Status, []float64) {
	x := make([]float64, t.nv)
	for j := range x {
		if t.boxed[j] && t.x[j] >= t.ub[j]-t.tol*math.Max(1, math.Abs(t.ub[j])) {
			return Unbounded, nil
		}
		x[j] = math.Min(math.Max(t.x[j], t.lb[j]), t.ub[j])
	}
	return Optimal, x
}
