// Package metrics — счётчики Prometheus для оценщика, решателя,
// отжига и fix-and-optimize.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry — собственный реестр планировщика.
	Registry = prometheus.NewRegistry()

	// Evaluations — вызовы оценщика последовательностей.
	Evaluations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "commondue_evaluations_total", Help: "Sequence evaluations."},
	)
	// SolverCalls — вызовы решателя по типу модели и статусу.
	SolverCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "commondue_solver_calls_total", Help: "Solver calls by model kind and status."},
		[]string{"model", "status"},
	)
	// SolverDuration — длительность решения в секундах.
	SolverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "commondue_solver_duration_seconds",
			Help:    "Solver wall time in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"model"},
	)
	// AcceptedMoves — принятые ходы отжига по окрестности.
	AcceptedMoves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "commondue_sa_accepted_moves_total", Help: "Accepted annealing moves by neighborhood."},
		[]string{"neighborhood"},
	)
	// Stages — завершённые стадии отжига.
	Stages = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "commondue_sa_stages_total", Help: "Completed annealing stages."},
	)
	// Windows — окна fix-and-optimize по исходу.
	Windows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "commondue_fixopt_windows_total", Help: "Fix-and-optimize windows by outcome."},
		[]string{"improved"},
	)
	// BestObjective — лучшее значение целевой функции после каждого этапа.
	BestObjective = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "commondue_best_objective", Help: "Best objective after each pipeline phase."},
		[]string{"phase"},
	)
)

var regOnce sync.Once

// RegisterDefault регистрирует все коллекторы в Registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(Evaluations)
		Registry.MustRegister(SolverCalls)
		Registry.MustRegister(SolverDuration)
		Registry.MustRegister(AcceptedMoves)
		Registry.MustRegister(Stages)
		Registry.MustRegister(Windows)
		Registry.MustRegister(BestObjective)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// ObserveSolve учитывает один вызов решателя.
func ObserveSolve(model, status string, d time.Duration) {
	SolverCalls.WithLabelValues(model, status).Inc()
	SolverDuration.WithLabelValues(model).Observe(d.Seconds())
}

// WriteTextfile выгружает Registry в формате textfile-коллектора
// node_exporter.
func WriteTextfile(path string) error {
	RegisterDefault()
	return prometheus.WriteToTextfile(path, Registry)
}
