package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"codeapi/internal/model"
)

// Metrics holds the lookup counters.
type Metrics struct {
	lookups *prometheus.CounterVec
}

// NewMetrics creates the lookup metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "code_lookups_total",
				Help: "Total number of code lookups by code type and outcome.",
			},
			[]string{"code_type", "outcome"},
		),
	}
	if err := reg.Register(m.lookups); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(ct model.CodeType, outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(ct.String(), outcome).Inc()
}
