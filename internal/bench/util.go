package bench

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
)

func randForSeed(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func dirOf(path string) string {
	d := filepath.Dir(path)
	if d == "." {
		return ""
	}
	return d
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ParseCases разбирает список "работы x h" через запятую, например
// "20x0.4,50x0.6". Сид экземпляра выводится из базового сида, номера
// пары и числа работ.
func ParseCases(s string, baseInstanceSeed int64) ([]Case, error) {
	parts := SplitCSV(s)
	cases := make([]Case, 0, len(parts))

	for i, p := range parts {
		jh := strings.Split(p, "x")
		if len(jh) != 2 {
			return nil, fmt.Errorf("пара %q невалидной схемы, пример: 50x0.4", p)
		}
		jobs, err := strconv.Atoi(strings.TrimSpace(jh[0]))
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества работ: %w", p, err)
		}
		h, err := strconv.ParseFloat(strings.TrimSpace(jh[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга коэффициента h: %w", p, err)
		}
		if jobs <= 0 || h <= 0 || h > 1 {
			return nil, fmt.Errorf("пара %q: количество работ должно быть > 0, h в (0,1]", p)
		}

		cases = append(cases, Case{
			Jobs:         jobs,
			H:            h,
			InstanceSeed: baseInstanceSeed + int64(i)*10_000 + int64(jobs)*100 + int64(h*10),
		})
	}
	return cases, nil
}

// SplitCSV делит строку по запятым, отбрасывая пустые элементы.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
