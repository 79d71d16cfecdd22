package etsched

import (
	"fmt"
	"math/rand"
)

func ValidatePermutation(perm []int, n int) error {
	if len(perm) != n {
		return fmt.Errorf("permutation length must be %d (got %d)", n, len(perm))
	}
	seen := make([]bool, n)
	for i, v := range perm {
		if v < 0 || v >= n {
			return fmt.Errorf("perm[%d]=%d out of range [0,%d)", i, v, n)
		}
		if seen[v] {
			return fmt.Errorf("duplicate job id %d in permutation", v)
		}
		seen[v] = true
	}
	return nil
}

// Identity возвращает [0, 1, ..., n-1].
func Identity(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// RandomPermutation возвращает равномерно случайную перестановку.
func RandomPermutation(n int, rng *rand.Rand) []int {
	p := Identity(n)
	for i := len(p) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// Profile — моменты завершения работ по позициям последовательности
// без простоев: profile[k] = p(seq[0]) + ... + p(seq[k]).
func Profile(inst *Instance, seq []int) []float64 {
	d := make([]float64, len(seq))
	t := 0.0
	for k, job := range seq {
		t += inst.P(job)
		d[k] = t
	}
	return d
}

// ProfileByJob — те же моменты завершения, индексированные номером работы.
func ProfileByJob(inst *Instance, seq []int) []float64 {
	d := make([]float64, inst.N())
	t := 0.0
	for _, job := range seq {
		t += inst.P(job)
		d[job] = t
	}
	return d
}

func clone(seq []int) []int {
	out := make([]int, len(seq))
	copy(out, seq)
	return out
}
