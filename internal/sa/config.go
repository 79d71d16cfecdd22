package sa

import (
	"fmt"

	"commonDue/internal/errs"
)

// Тип окрестности (номер оператора)
type Neighborhood int

const (
	NeighborhoodSwapAcrossDue      Neighborhood = 1
	NeighborhoodMovePrefixToSuffix Neighborhood = 2
	NeighborhoodPairwiseSwap       Neighborhood = 3
	NeighborhoodRelocate           Neighborhood = 4
)

func (n Neighborhood) String() string {
	switch n {
	case NeighborhoodSwapAcrossDue:
		return "swap_across_due"
	case NeighborhoodMovePrefixToSuffix:
		return "move_prefix_to_suffix"
	case NeighborhoodPairwiseSwap:
		return "pairwise_swap"
	case NeighborhoodRelocate:
		return "relocate"
	default:
		return fmt.Sprintf("neighborhood(%d)", int(n))
	}
}

// Supported сообщает, реализован ли оператор.
func (n Neighborhood) Supported() bool {
	return n >= NeighborhoodSwapAcrossDue && n <= NeighborhoodRelocate
}

type Config struct {
	// Геометрическое охлаждение T <- CoolingFactor*T
	CoolingFactor float64 `yaml:"cooling_factor"`
	// Подряд идущих стадий без улучшения до остановки
	StageStopCount int `yaml:"stage_stop_count"`
	// tau0 для калибровки начальной температуры
	InitialAcceptance float64 `yaml:"initial_acceptance"`

	RelativeStopMinStages int `yaml:"relative_stop_min_stages"`
	// Доля, а не проценты: 0.005 = 0.5%
	RelativeStopMinPctChange float64 `yaml:"relative_stop_min_pct_change"`

	// c1 и c2: попыток и принятых ходов на стадию в расчёте на работу
	TestedPerJob        float64 `yaml:"tested_per_job"`
	PerturbationsPerJob float64 `yaml:"perturbations_per_job"`
	CapAtPerturbations  bool    `yaml:"cap_at_perturbations"`

	// Стагнация считается только при T < ratio*T0
	StagnationTemperatureRatio float64 `yaml:"stagnation_temperature_ratio"`

	TemperatureSamples      int            `yaml:"temperature_samples"`
	CalibrationNeighborhood Neighborhood   `yaml:"calibration_neighborhood"`
	Neighborhoods           []Neighborhood `yaml:"neighborhoods"`

	// 0 — без ограничения
	MaxStages int `yaml:"max_stages"`
}

func DefaultConfig() Config {
	return Config{
		CoolingFactor:     0.8,
		StageStopCount:    3,
		InitialAcceptance: 0.3,

		RelativeStopMinStages:    5,
		RelativeStopMinPctChange: 0.005,

		TestedPerJob:        2,
		PerturbationsPerJob: 1,
		CapAtPerturbations:  false,

		StagnationTemperatureRatio: 0.2,

		TemperatureSamples:      100,
		CalibrationNeighborhood: NeighborhoodPairwiseSwap,
		Neighborhoods: []Neighborhood{
			NeighborhoodSwapAcrossDue,
			NeighborhoodPairwiseSwap,
			NeighborhoodRelocate,
		},

		MaxStages: 0,
	}
}

func (c Config) Validate() error {
	if c.CoolingFactor <= 0 || c.CoolingFactor >= 1 {
		return errs.InvalidConfig(
			"cooling_factor должно лежать в интервале (0,1) (получено %f)",
			c.CoolingFactor,
		)
	}
	if c.StageStopCount <= 0 {
		return errs.InvalidConfig(
			"stage_stop_count должно быть > 0 (получено %d)",
			c.StageStopCount,
		)
	}
	if c.InitialAcceptance <= 0 || c.InitialAcceptance >= 1 {
		return errs.InvalidConfig(
			"initial_acceptance должно лежать в интервале (0,1) (получено %f)",
			c.InitialAcceptance,
		)
	}
	if c.RelativeStopMinStages < 2 {
		return errs.InvalidConfig(
			"relative_stop_min_stages должно быть >= 2 (получено %d)",
			c.RelativeStopMinStages,
		)
	}
	if c.RelativeStopMinPctChange < 0 {
		return errs.InvalidConfig(
			"relative_stop_min_pct_change должно быть >= 0 (получено %f)",
			c.RelativeStopMinPctChange,
		)
	}
	if c.TestedPerJob <= 0 {
		return errs.InvalidConfig(
			"tested_per_job должно быть > 0 (получено %f)",
			c.TestedPerJob,
		)
	}
	if c.PerturbationsPerJob <= 0 {
		return errs.InvalidConfig(
			"perturbations_per_job должно быть > 0 (получено %f)",
			c.PerturbationsPerJob,
		)
	}
	if c.StagnationTemperatureRatio <= 0 || c.StagnationTemperatureRatio > 1 {
		return errs.InvalidConfig(
			"stagnation_temperature_ratio должно лежать в интервале (0,1] (получено %f)",
			c.StagnationTemperatureRatio,
		)
	}
	if c.TemperatureSamples <= 0 {
		return errs.InvalidConfig(
			"temperature_samples должно быть > 0 (получено %d)",
			c.TemperatureSamples,
		)
	}
	if c.MaxStages < 0 {
		return errs.InvalidConfig(
			"max_stages должно быть >= 0 (получено %d)",
			c.MaxStages,
		)
	}
	if len(c.Neighborhoods) == 0 {
		return errs.InvalidConfig("не задано ни одной окрестности")
	}
	for _, nb := range c.Neighborhoods {
		if !nb.Supported() {
			return errs.UnsupportedNeighborhood(int(nb))
		}
	}
	if !c.CalibrationNeighborhood.Supported() {
		return errs.UnsupportedNeighborhood(int(c.CalibrationNeighborhood))
	}
	return nil
}
