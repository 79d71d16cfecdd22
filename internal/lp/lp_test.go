package lp

import (
	"context"
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) <= eps*math.Max(1, math.Abs(b)) }

func TestSimplexTwoVariables(t *testing.T) {
	// min x + y, x + 2y >= 4, 3x + y >= 6
	m := NewModel("two")
	x := m.AddVar(1, 0, Inf, Continuous, "x")
	y := m.AddVar(1, 0, Inf, Continuous, "y")
	m.AddConstr([]int{x, y}, []float64{1, 2}, GreaterEqual, 4, "c1")
	m.AddConstr([]int{x, y}, []float64{3, 1}, GreaterEqual, 6, "c2")

	sol, err := Simplex{}.Solve(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Optimal {
		t.Fatalf("status = %v, want optimal", sol.Status)
	}
	if !near(sol.Obj, 2.8) {
		t.Errorf("obj = %v, want 2.8", sol.Obj)
	}
	if !near(sol.X[x], 1.6) || !near(sol.X[y], 1.2) {
		t.Errorf("x = %v, want [1.6 1.2]", sol.X)
	}
}

func TestSimplexBoundsAndEquality(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Model
		want  Status
		obj   float64
	}{
		{
			name: "upper bound row",
			build: func() *Model {
				m := NewModel("ub")
				m.AddVar(-1, 0, 3, Continuous, "x")
				return m
			},
			want: Optimal,
			obj:  -3,
		},
		{
			name: "shifted lower bound",
			build: func() *Model {
				m := NewModel("lb")
				x := m.AddVar(2, 1.5, Inf, Continuous, "x")
				m.AddConstr([]int{x}, []float64{1}, LessEqual, 10, "cap")
				return m
			},
			want: Optimal,
			obj:  3,
		},
		{
			name: "fixed variable substituted",
			build: func() *Model {
				m := NewModel("fixed")
				x := m.AddVar(1, 4, 4, Continuous, "x")
				y := m.AddVar(1, 0, Inf, Continuous, "y")
				m.AddConstr([]int{x, y}, []float64{1, 1}, GreaterEqual, 7, "sum")
				return m
			},
			want: Optimal,
			obj:  7,
		},
		{
			name: "equality",
			build: func() *Model {
				m := NewModel("eq")
				x := m.AddVar(1, 0, Inf, Continuous, "x")
				y := m.AddVar(-1, 0, Inf, Continuous, "y")
				m.AddConstr([]int{x, y}, []float64{1, 1}, Equal, 2, "sum")
				return m
			},
			want: Optimal,
			obj:  -2,
		},
		{
			name: "infeasible",
			build: func() *Model {
				m := NewModel("inf")
				x := m.AddVar(1, 0, Inf, Continuous, "x")
				m.AddConstr([]int{x}, []float64{1}, LessEqual, 1, "le")
				m.AddConstr([]int{x}, []float64{1}, GreaterEqual, 2, "ge")
				return m
			},
			want: Infeasible,
		},
		{
			name: "fixed variable violates row",
			build: func() *Model {
				m := NewModel("fixedinf")
				x := m.AddVar(0, 5, 5, Continuous, "x")
				m.AddConstr([]int{x}, []float64{1}, LessEqual, 4, "le")
				return m
			},
			want: Infeasible,
		},
		{
			name: "unbounded free column",
			build: func() *Model {
				m := NewModel("unb")
				m.AddVar(-1, 0, Inf, Continuous, "x")
				return m
			},
			want: Unbounded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol, err := Simplex{}.Solve(context.Background(), tt.build())
			if err != nil {
				t.Fatal(err)
			}
			if sol.Status != tt.want {
				t.Fatalf("status = %v, want %v", sol.Status, tt.want)
			}
			if tt.want == Optimal && !near(sol.Obj, tt.obj) {
				t.Errorf("obj = %v, want %v", sol.Obj, tt.obj)
			}
		})
	}
}

func TestValidateRejectsBadIndex(t *testing.T) {
	m := NewModel("bad")
	m.AddVar(1, 0, 1, Continuous, "x")
	m.AddConstr([]int{3}, []float64{1}, LessEqual, 1, "oops")
	if _, err := (Simplex{}).Solve(context.Background(), m); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func knapsack() *Model {
	// max 5a + 4b + 3c, 2a + 3b + c <= 5
	m := NewModel("knapsack")
	a := m.AddVar(-5, 0, 1, Binary, "a")
	b := m.AddVar(-4, 0, 1, Binary, "b")
	c := m.AddVar(-3, 0, 1, Binary, "c")
	m.AddConstr([]int{a, b, c}, []float64{2, 3, 1}, LessEqual, 5, "weight")
	return m
}

func TestBranchAndBoundKnapsack(t *testing.T) {
	sol, err := BranchAndBound{}.Solve(context.Background(), knapsack())
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Optimal {
		t.Fatalf("status = %v, want optimal", sol.Status)
	}
	if !near(sol.Obj, -9) {
		t.Errorf("obj = %v, want -9", sol.Obj)
	}
	want := []float64{1, 1, 0}
	for j := range want {
		if sol.X[j] != want[j] {
			t.Errorf("x = %v, want %v", sol.X, want)
			break
		}
	}
}

func TestBranchAndBoundStart(t *testing.T) {
	m := knapsack()
	m.Start = []float64{1, 0, 1} // допустимо, obj -8
	sol, err := BranchAndBound{}.Solve(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Optimal || !near(sol.Obj, -9) {
		t.Errorf("with feasible start: status %v obj %v, want optimal -9", sol.Status, sol.Obj)
	}

	m.Start = []float64{1, 1, 1} // вес 6 > 5
	sol, err = BranchAndBound{}.Solve(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Optimal || !near(sol.Obj, -9) {
		t.Errorf("with infeasible start: status %v obj %v, want optimal -9", sol.Status, sol.Obj)
	}
}

func TestBranchAndBoundNodeLimit(t *testing.T) {
	sol, err := BranchAndBound{MaxNodes: 1}.Solve(context.Background(), knapsack())
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != NodeLimit {
		t.Errorf("status = %v, want node_limit", sol.Status)
	}
}

func TestBranchAndBoundInfeasible(t *testing.T) {
	m := NewModel("inf")
	a := m.AddVar(1, 0, 1, Binary, "a")
	b := m.AddVar(1, 0, 1, Binary, "b")
	m.AddConstr([]int{a, b}, []float64{1, 1}, Equal, 1.5, "half")
	sol, err := BranchAndBound{}.Solve(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Infeasible {
		t.Errorf("status = %v, want infeasible", sol.Status)
	}
}

func TestBranchAndBoundCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (BranchAndBound{}).Solve(ctx, knapsack()); err == nil {
		t.Error("expected context error")
	}
}

func TestFeasible(t *testing.T) {
	m := knapsack()
	if !m.Feasible([]float64{0, 1, 1}, 1e-9) {
		t.Error("b+c should be feasible")
	}
	if m.Feasible([]float64{0.5, 1, 1}, 1e-9) {
		t.Error("fractional binary should be infeasible")
	}
	if m.Feasible([]float64{1, 1}, 1e-9) {
		t.Error("short vector should be infeasible")
	}
}

// randomLP — задача с допустимой точкой x0 и неотрицательными
// стоимостями, поэтому оптимум существует.
func randomLP(rng *rand.Rand, n, rows int) *Model {
	m := NewModel("random")
	x0 := make([]float64, n)
	for j := 0; j < n; j++ {
		ub := Inf
		if rng.Intn(3) == 0 {
			ub = float64(4 + rng.Intn(4))
		}
		m.AddVar(float64(rng.Intn(6)), 0, ub, Continuous, "")
		x0[j] = float64(rng.Intn(4))
	}
	for i := 0; i < rows; i++ {
		ind := make([]int, 0, n)
		val := make([]float64, 0, n)
		lhs := 0.0
		for j := 0; j < n; j++ {
			if a := float64(rng.Intn(11) - 5); a != 0 {
				ind = append(ind, j)
				val = append(val, a)
				lhs += a * x0[j]
			}
		}
		switch rng.Intn(3) {
		case 0:
			m.AddConstr(ind, val, LessEqual, lhs+float64(rng.Intn(4)), "")
		case 1:
			m.AddConstr(ind, val, GreaterEqual, lhs-float64(rng.Intn(4)), "")
		default:
			m.AddConstr(ind, val, Equal, lhs, "")
		}
	}
	return m
}

func TestSimplexWarmStartAgreesWithDual(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	warmed := 0
	for k := 0; k < 40; k++ {
		m := randomLP(rng, 6, 4)
		cold, err := Simplex{}.Solve(context.Background(), m)
		if err != nil {
			t.Fatal(err)
		}
		if cold.Status != Optimal {
			t.Fatalf("model %d: status %v, want optimal", k, cold.Status)
		}
		if cold.Warm {
			t.Errorf("model %d: solved warm without start", k)
		}
		if !m.Feasible(cold.X, 1e-6) {
			t.Fatalf("model %d: solution %v infeasible", k, cold.X)
		}

		// Оптимальная вершина как Start: gonum стартует из её базиса.
		m.Start = cold.X
		warm, err := Simplex{}.Solve(context.Background(), m)
		if err != nil {
			t.Fatal(err)
		}
		if warm.Status != Optimal || !near(warm.Obj, cold.Obj) {
			t.Errorf("model %d: warm %v %v, cold %v", k, warm.Status, warm.Obj, cold.Obj)
		}
		if warm.Warm {
			warmed++
		}
	}
	// Квадратную систему gonum решает без базиса и может отвергнуть
	// вершину с погрешностью; такие модели дорешиваются по таблице.
	if warmed < 30 {
		t.Errorf("vertex start used in %d of 40 models", warmed)
	}
}

func TestSimplexNonVertexStart(t *testing.T) {
	// min x + 2y, x + y >= 2; (1.5, 1.5) допустима, но не вершина.
	m := NewModel("mid")
	x := m.AddVar(1, 0, Inf, Continuous, "x")
	y := m.AddVar(2, 0, Inf, Continuous, "y")
	m.AddConstr([]int{x, y}, []float64{1, 1}, GreaterEqual, 2, "sum")
	m.AddConstr([]int{x, y}, []float64{1, -1}, LessEqual, 4, "diff")
	m.Start = []float64{1.5, 1.5}

	sol, err := Simplex{}.Solve(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Optimal || !near(sol.Obj, 2) {
		t.Errorf("status %v obj %v, want optimal 2", sol.Status, sol.Obj)
	}
}

func TestSimplexBigMRelaxation(t *testing.T) {
	// Релаксация упорядочения двух работ длительностей 3 и 5 на
	// промежутке [0, 8] с M = 8 и строками моментов завершения.
	m := NewModel("order")
	c1 := m.AddVar(0, 0, Inf, Continuous, "C_1")
	c2 := m.AddVar(0, 0, Inf, Continuous, "C_2")
	e1 := m.AddVar(2, 0, Inf, Continuous, "e_1")
	t2 := m.AddVar(3, 0, Inf, Continuous, "t_2")
	y := m.AddVar(0, 0, 1, Continuous, "b_1_2")
	m.AddConstr([]int{c1, c2, y}, []float64{1, -1, 8}, LessEqual, 3, "order_1_2")
	m.AddConstr([]int{c2, c1, y}, []float64{1, -1, -8}, LessEqual, -3, "order_2_1")
	m.AddConstr([]int{c1, y}, []float64{1, 5}, Equal, 8, "completion_1")
	m.AddConstr([]int{c2, y}, []float64{1, -3}, Equal, 5, "completion_2")
	m.AddConstr([]int{e1, c1}, []float64{1, 1}, GreaterEqual, 6, "early_1")
	m.AddConstr([]int{t2, c2}, []float64{1, -1}, GreaterEqual, -6, "tardy_2")

	sol, err := Simplex{}.Solve(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Optimal {
		t.Fatalf("status = %v, want optimal", sol.Status)
	}
	if !m.Feasible(sol.X, 1e-6) {
		t.Errorf("solution %v infeasible", sol.X)
	}
	bin, err := BranchAndBound{}.Solve(context.Background(), binaryCopy(m, y))
	if err != nil {
		t.Fatal(err)
	}
	// y = 1: C = (3, 8), цена 2*3 + 3*2 = 12; y = 0: C = (8, 5), цена 0.
	if bin.Status != Optimal || !near(bin.Obj, 0) {
		t.Errorf("milp: status %v obj %v, want optimal 0", bin.Status, bin.Obj)
	}
	if sol.Obj > bin.Obj+eps {
		t.Errorf("relaxation %v above milp %v", sol.Obj, bin.Obj)
	}
}

func binaryCopy(m *Model, vars ...int) *Model {
	out := *m
	out.Vars = append([]Var(nil), m.Vars...)
	for _, j := range vars {
		out.Vars[j].Type = Binary
	}
	return &out
}

func TestSimplexUnboundedRow(t *testing.T) {
	// min -x - y, x - y <= 1
	m := NewModel("unb")
	x := m.AddVar(-1, 0, Inf, Continuous, "x")
	y := m.AddVar(-1, 0, Inf, Continuous, "y")
	m.AddConstr([]int{x, y}, []float64{1, -1}, LessEqual, 1, "diff")
	sol, err := Simplex{}.Solve(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Unbounded {
		t.Errorf("status = %v, want unbounded", sol.Status)
	}
}

func TestBranchAndBoundMatchesEnumeration(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n = 10
	for k := 0; k < 5; k++ {
		m := NewModel("multi")
		for j := 0; j < n; j++ {
			m.AddVar(-float64(1+rng.Intn(20)), 0, 1, Binary, "")
		}
		rows := make([][]float64, 3)
		caps := make([]float64, 3)
		for i := range rows {
			rows[i] = make([]float64, n)
			ind := make([]int, n)
			sum := 0.0
			for j := range rows[i] {
				ind[j] = j
				rows[i][j] = float64(1 + rng.Intn(9))
				sum += rows[i][j]
			}
			caps[i] = math.Floor(sum / 2)
			m.AddConstr(ind, rows[i], LessEqual, caps[i], "")
		}

		best := 0.0
		for mask := 0; mask < 1<<n; mask++ {
			ok := true
			for i := range rows {
				w := 0.0
				for j := 0; j < n; j++ {
					if mask&(1<<j) != 0 {
						w += rows[i][j]
					}
				}
				if w > caps[i] {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			obj := 0.0
			for j := 0; j < n; j++ {
				if mask&(1<<j) != 0 {
					obj += m.Vars[j].Obj
				}
			}
			best = math.Min(best, obj)
		}

		sol, err := BranchAndBound{}.Solve(context.Background(), m)
		if err != nil {
			t.Fatal(err)
		}
		if sol.Status != Optimal || !near(sol.Obj, best) {
			t.Errorf("model %d: status %v obj %v, enumeration %v", k, sol.Status, sol.Obj, best)
		}
		if !m.Feasible(sol.X, 1e-9) {
			t.Errorf("model %d: solution %v infeasible", k, sol.X)
		}
	}
}

func TestBranchAndBoundKeepsStartAtNodeLimit(t *testing.T) {
	m := knapsack()
	m.Start = []float64{1, 0, 1}
	sol, err := BranchAndBound{MaxNodes: 1}.Solve(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != NodeLimit || sol.X == nil || !near(sol.Obj, -8) {
		t.Errorf("status %v obj %v x %v, want node_limit with start -8", sol.Status, sol.Obj, sol.X)
	}
	if !sol.Warm {
		t.Error("start incumbent not reported")
	}
}
