package etsched

import (
	"math"
	"math/rand"

	"commonDue/internal/errs"
)

// Job — работа: длительность и веса опережения/запаздывания.
type Job struct {
	ID    int
	P     float64 // длительность обработки
	Alpha float64 // вес опережения
	Beta  float64 // вес запаздывания
}

// Instance — набор работ с общим директивным сроком.
type Instance struct {
	Jobs    []Job
	DueDate float64
}

func NewInstance(jobs []Job, dueDate float64) (*Instance, error) {
	inst := &Instance{Jobs: jobs, DueDate: dueDate}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return errs.InvalidInstance("instance is nil")
	}
	if len(inst.Jobs) == 0 {
		return errs.InvalidInstance("instance has no jobs")
	}
	if !finiteNonNeg(inst.DueDate) {
		return errs.InvalidInstance("due date must be finite and >= 0 (got %v)", inst.DueDate)
	}
	seen := make([]bool, len(inst.Jobs))
	for i, j := range inst.Jobs {
		if j.ID < 0 || j.ID >= len(inst.Jobs) {
			return errs.InvalidInstance("jobs[%d]: id %d out of range [0,%d)", i, j.ID, len(inst.Jobs)).WithField("row", i)
		}
		if seen[j.ID] {
			return errs.InvalidInstance("jobs[%d]: duplicate id %d", i, j.ID).WithField("row", i)
		}
		seen[j.ID] = true
		if j.ID != i {
			return errs.InvalidInstance("jobs[%d]: id %d does not match row order", i, j.ID).WithField("row", i)
		}
		if !finiteNonNeg(j.P) {
			return errs.InvalidInstance("jobs[%d]: processing time must be >= 0 (got %v)", i, j.P).WithField("row", i)
		}
		if !finiteNonNeg(j.Alpha) {
			return errs.InvalidInstance("jobs[%d]: earliness weight must be >= 0 (got %v)", i, j.Alpha).WithField("row", i)
		}
		if !finiteNonNeg(j.Beta) {
			return errs.InvalidInstance("jobs[%d]: tardiness weight must be >= 0 (got %v)", i, j.Beta).WithField("row", i)
		}
	}
	return nil
}

func finiteNonNeg(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}

// N — число работ.
func (inst *Instance) N() int { return len(inst.Jobs) }

func (inst *Instance) P(job int) float64 { return inst.Jobs[job].P }

// TotalProcessing — сумма длительностей всех работ.
func (inst *Instance) TotalProcessing() float64 {
	sum := 0.0
	for _, j := range inst.Jobs {
		sum += j.P
	}
	return sum
}

// RandomInstance генерирует экземпляр в духе Biskup-Feldmann:
// p в [1,20], alpha в [1,10], beta в [1,15], D = floor(h * sum(p)).
func RandomInstance(n int, h float64, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("генератор случайных чисел не инициализирован (nil)")
	}
	if n <= 0 || h <= 0 {
		panic("invalid instance parameters")
	}
	jobs := make([]Job, n)
	total := 0.0
	for i := range jobs {
		jobs[i] = Job{
			ID:    i,
			P:     float64(1 + rng.Intn(20)),
			Alpha: float64(1 + rng.Intn(10)),
			Beta:  float64(1 + rng.Intn(15)),
		}
		total += jobs[i].P
	}
	inst, err := NewInstance(jobs, math.Floor(h*total))
	if err != nil {
		panic(err)
	}
	return inst
}
