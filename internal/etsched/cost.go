// Package etsched — модель задачи одного станка с общим директивным
// сроком: работы, последовательности, профиль завершения и оценка
// взвешенного опережения/запаздывания.
//
// Соглашение о весах: Alpha умножается на опережение max(0, D - C),
// Beta — на запаздывание max(0, C - D). Ему следуют оценщик (ЛП),
// конструктивная эвристика и модель fix-and-optimize.
package etsched

import (
	"math"
	"sort"
)

// onTimeTol — допуск сравнения момента завершения с директивным сроком.
const onTimeTol = 1e-9

// JobCost — взвешенное опережение/запаздывание работы, завершённой в c.
func JobCost(j Job, c, due float64) float64 {
	if c < due {
		return j.Alpha * (due - c)
	}
	return j.Beta * (c - due)
}

// Cost — стоимость последовательности при сдвиге offset.
func Cost(inst *Instance, seq []int, offset float64) float64 {
	sum := 0.0
	t := offset
	for _, job := range seq {
		t += inst.P(job)
		sum += JobCost(inst.Jobs[job], t, inst.DueDate)
	}
	return sum
}

// OnTime — число работ, завершённых не позже директивного срока при
// сдвиге offset.
func OnTime(inst *Instance, seq []int, offset float64) int {
	count := 0
	t := offset
	for _, job := range seq {
		t += inst.P(job)
		if t <= inst.DueDate+onTimeTol {
			count++
		}
	}
	return count
}

// BestOffset находит оптимальный сдвиг перебором точек излома.
//
// Стоимость как функция сдвига кусочно-линейна и выпукла, изломы лежат
// в точках D - d_k, поэтому минимум на [0, D] достигается в одной из них
// или на границе. Среди равных по стоимости выбирается меньший сдвиг.
func BestOffset(inst *Instance, seq []int) (offset, cost float64) {
	d := Profile(inst, seq)
	cands := make([]float64, 0, len(d)+2)
	cands = append(cands, 0, inst.DueDate)
	for _, dk := range d {
		o := inst.DueDate - dk
		if o > 0 && o < inst.DueDate {
			cands = append(cands, o)
		}
	}
	sort.Float64s(cands)

	cost = math.Inf(1)
	for _, o := range cands {
		if c := Cost(inst, seq, o); c < cost-1e-12 {
			offset, cost = o, c
		}
	}
	return offset, cost
}
