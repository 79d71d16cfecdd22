// Package heuristic — конструктивная эвристика начальной
// последовательности (адаптация подхода Sridharan & Zhou, "Decision
// theory for earliness and tardiness", 1996). Решатель не вызывается.
package heuristic

import (
	"commonDue/internal/etsched"
)

// Result — последовательность и её стоимость без сдвига.
type Result struct {
	Sequence   []int
	Completion float64 // момент завершения последней работы
	Objective  float64 // sum(alpha*E + beta*T) при сдвиге 0
}

// Build строит последовательность за N шагов.
//
// На каждом шаге для каждой ещё не назначенной работы k прогнозируется
// её момент завершения C_k = t0 + p_k при постановке следующей. Остальные
// работы j прогнозируются в среднем положении среди оставшихся:
// C_j = C_k + p_j + pAvg*(m-2)/2, где pAvg — средняя длительность
// остальных m-1 работ. Выбирается k с минимальной суммарной
// прогнозируемой стоимостью по всему остатку. При равенстве выигрывает
// работа с меньшим номером.
func Build(inst *etsched.Instance) (Result, error) {
	if err := inst.Validate(); err != nil {
		return Result{}, err
	}

	n := inst.N()
	due := inst.DueDate

	// Неназначенные работы в порядке возрастания номера
	unscheduled := etsched.Identity(n)
	remaining := inst.TotalProcessing()

	seq := make([]int, 0, n)
	t0 := 0.0
	f := 0.0

	for step := 0; step < n; step++ {
		m := len(unscheduled)
		argMin := -1
		bestCost := 0.0

		for pos, k := range unscheduled {
			cost := projectedCost(inst, unscheduled, k, t0, remaining, m)
			if argMin < 0 || cost < bestCost {
				argMin = pos
				bestCost = cost
			}
		}

		job := unscheduled[argMin]
		unscheduled = append(unscheduled[:argMin], unscheduled[argMin+1:]...)
		remaining -= inst.P(job)
		t0 += inst.P(job)
		seq = append(seq, job)

		f += etsched.JobCost(inst.Jobs[job], t0, due)
	}

	return Result{Sequence: seq, Completion: t0, Objective: f}, nil
}

// projectedCost — прогнозируемая стоимость всего остатка при постановке
// работы k следующей.
func projectedCost(inst *etsched.Instance, unscheduled []int, k int, t0, remaining float64, m int) float64 {
	due := inst.DueDate
	ck := t0 + inst.P(k)
	cost := etsched.JobCost(inst.Jobs[k], ck, due)
	if m <= 1 {
		return cost
	}

	avg := (remaining - inst.P(k)) / float64(m-1)
	ahead := avg * float64(m-2) / 2
	for _, j := range unscheduled {
		if j == k {
			continue
		}
		cost += etsched.JobCost(inst.Jobs[j], ck+inst.P(j)+ahead, due)
	}
	return cost
}
