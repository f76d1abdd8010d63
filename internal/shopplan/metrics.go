package shopplan

import (
	"errors"

	"github.com/aisa-it/shopplan/internal/shopplan/dto"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "shopplan"

// sprintMetrics счётчики операций планировщика и текущая мощность спринта.
type sprintMetrics struct {
	admissions    *prometheus.CounterVec
	autoAssigned  prometheus.Counter
	capacityHours *prometheus.GaugeVec
}

func newSprintMetrics(reg prometheus.Registerer) *sprintMetrics {
	m := &sprintMetrics{
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sprint",
			Name:      "admissions_total",
			Help:      "Attempts to add a task to the sprint by result",
		}, []string{"result"}),
		autoAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sprint",
			Name:      "auto_assigned_total",
			Help:      "Tasks added to the sprint by auto-assignment",
		}),
		capacityHours: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "sprint",
			Name:      "capacity_hours",
			Help:      "Sprint capacity in hours at the last capacity calculation",
		}, []string{"resource", "kind"}),
	}

	m.admissions = register(reg, m.admissions)
	m.autoAssigned = register(reg, m.autoAssigned)
	m.capacityHours = register(reg, m.capacityHours)
	return m
}

// register возвращает уже зарегистрированный коллектор, если он есть.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *sprintMetrics) observeAdmission(success bool) {
	result := "rejected"
	if success {
		result = "added"
	}
	m.admissions.WithLabelValues(result).Inc()
}

func (m *sprintMetrics) observeCapacity(c *dto.SprintCapacity) {
	m.capacityHours.WithLabelValues("operator", "total").Set(float64(c.TotalOperatorHours))
	m.capacityHours.WithLabelValues("operator", "required").Set(float64(c.RequiredOperatorHours))
	m.capacityHours.WithLabelValues("machine", "total").Set(float64(c.TotalMachineHours))
	m.capacityHours.WithLabelValues("machine", "required").Set(float64(c.RequiredMachineHours))
}
