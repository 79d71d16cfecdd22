package sa

import "math"

// Причины остановки
const (
	StopStage    = "stage_stop"
	StopRelative = "relative_stop"
	StopMax      = "max_stages"
	StopContext  = "context"
)

// stageMinima — минимум целевой функции по стадиям в порядке их
// появления в трассе. Стадии без принятых ходов пропускаются.
func stageMinima(trace []TraceRecord) []float64 {
	var minima []float64
	last := -1
	for _, rec := range trace {
		if len(minima) == 0 || rec.Stage != last {
			minima = append(minima, rec.Objective)
			last = rec.Stage
			continue
		}
		if rec.Objective < minima[len(minima)-1] {
			minima[len(minima)-1] = rec.Objective
		}
	}
	return minima
}

// relativeChange — |b-a|/|a|; при a == 0 — абсолютное изменение.
func relativeChange(a, b float64) float64 {
	if a == 0 {
		return math.Abs(b)
	}
	return math.Abs(b-a) / math.Abs(a)
}

// relativeStop срабатывает, когда стадий не меньше minStages и два
// последних минимума различаются меньше чем на minChange.
func relativeStop(trace []TraceRecord, minStages int, minChange float64) bool {
	minima := stageMinima(trace)
	if len(minima) < minStages || len(minima) < 2 {
		return false
	}
	return relativeChange(minima[len(minima)-2], minima[len(minima)-1]) < minChange
}

// stagnation считает подряд идущие стадии без улучшения лучшего решения.
// Счёт ведётся только ниже порога температуры.
type stagnation struct {
	threshold float64
	limit     int
	count     int
}

// observe учитывает завершённую стадию; T — температура после охлаждения.
func (s *stagnation) observe(improved bool, T float64) bool {
	switch {
	case improved:
		s.count = 0
	case T < s.threshold:
		s.count++
	}
	return s.count >= s.limit
}
