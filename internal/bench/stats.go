package bench

import "math"

// Stats — лучшее (минимальное), среднее и выборочное стандартное
// отклонение серии запусков.
type Stats struct {
	N    int
	Best float64
	Mean float64
	Std  float64
}

type number interface {
	~int | ~float64
}

func CalcStats[T number](values []T) Stats {
	s := Stats{N: len(values)}
	if s.N == 0 {
		return s
	}

	best := float64(values[0])
	sum := 0.0
	for _, v := range values {
		f := float64(v)
		if f < best {
			best = f
		}
		sum += f
	}
	mean := sum / float64(s.N)

	variance := 0.0
	if s.N >= 2 {
		for _, v := range values {
			d := float64(v) - mean
			variance += d * d
		}
		variance /= float64(s.N - 1)
	}

	s.Best = best
	s.Mean = mean
	s.Std = math.Sqrt(variance)
	return s
}

// RelativeGap — (value - ref) / ref в процентах; при ref == 0 — 0.
func RelativeGap(value, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return 100 * (value - ref) / ref
}
