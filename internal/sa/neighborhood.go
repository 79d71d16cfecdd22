package sa

import (
	"math/rand"
	"sort"

	"commonDue/internal/errs"
	"commonDue/internal/etsched"
)

// Neighbor строит соседнюю последовательность оператором nb.
// onTime — число работ префикса, завершающихся не позже D, по последней
// оценке cur. Исходный срез не изменяется.
func Neighbor(inst *etsched.Instance, nb Neighborhood, cur []int, onTime int, rng *rand.Rand) ([]int, error) {
	if onTime < 0 {
		onTime = 0
	}
	if onTime > len(cur) {
		onTime = len(cur)
	}
	switch nb {
	case NeighborhoodSwapAcrossDue:
		return swapAcrossDue(inst, cur, onTime, rng)
	case NeighborhoodMovePrefixToSuffix:
		return movePrefixToSuffix(inst, cur, onTime, rng)
	case NeighborhoodPairwiseSwap:
		return pairwiseSwap(cur, rng)
	case NeighborhoodRelocate:
		return relocate(cur, rng)
	default:
		return nil, errs.UnsupportedNeighborhood(int(nb))
	}
}

// Обмен работ префикса и суффикса. Суффикс после вставки
// переупорядочивается по убыванию веса опережения.
func swapAcrossDue(inst *etsched.Instance, cur []int, onTime int, rng *rand.Rand) ([]int, error) {
	if onTime == 0 || onTime == len(cur) {
		return nil, errs.EmptyNeighborhoodInput(
			"swap across due date: prefix %d, suffix %d", onTime, len(cur)-onTime,
		)
	}
	out := append([]int(nil), cur...)
	i := rng.Intn(onTime)
	j := onTime + rng.Intn(len(cur)-onTime)
	out[i], out[j] = out[j], out[i]
	sortByEarlinessWeight(inst, out[onTime:])
	return out, nil
}

// Перенос работы из префикса в начало суффикса с тем же ремонтом.
func movePrefixToSuffix(inst *etsched.Instance, cur []int, onTime int, rng *rand.Rand) ([]int, error) {
	if onTime == 0 {
		return nil, errs.EmptyNeighborhoodInput("move prefix to suffix: empty prefix")
	}
	i := rng.Intn(onTime)
	job := cur[i]

	out := make([]int, 0, len(cur))
	out = append(out, cur[:i]...)
	out = append(out, cur[i+1:onTime]...)
	out = append(out, job)
	out = append(out, cur[onTime:]...)
	sortByEarlinessWeight(inst, out[onTime-1:])
	return out, nil
}

// Обмен двух случайных позиций.
func pairwiseSwap(cur []int, rng *rand.Rand) ([]int, error) {
	n := len(cur)
	if n < 2 {
		return nil, errs.EmptyNeighborhoodInput("pairwise swap: %d jobs", n)
	}
	out := append([]int(nil), cur...)
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	out[i], out[j] = out[j], out[i]
	return out, nil
}

// Извлечение элемента из позиции i и вставка его в позицию j.
func relocate(cur []int, rng *rand.Rand) ([]int, error) {
	n := len(cur)
	if n < 2 {
		return nil, errs.EmptyNeighborhoodInput("relocate: %d jobs", n)
	}
	out := append([]int(nil), cur...)
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}

	val := out[i]
	if i < j {
		copy(out[i:j], out[i+1:j+1])
	} else {
		copy(out[j+1:i+1], out[j:i])
	}
	out[j] = val
	return out, nil
}

func sortByEarlinessWeight(inst *etsched.Instance, part []int) {
	sort.SliceStable(part, func(a, b int) bool {
		return inst.Jobs[part[a]].Alpha > inst.Jobs[part[b]].Alpha
	})
}
