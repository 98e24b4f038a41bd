package rules

import (
	"github.com/mohamedkhairy/strategy-lab/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	ruleEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_evaluations_total",
			Help: "Total number of observed rule evaluations",
		},
		[]string{"rule", "result"}, // result: "satisfied" or "unsatisfied"
	)
)

// LogObserver writes every observed evaluation at debug level
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver creates a LogObserver. A nil log uses the global logger.
func NewLogObserver(log *zap.Logger) *LogObserver {
	if log == nil {
		log = logger.Get()
	}
	return &LogObserver{log: log}
}

// Observe implements Observer
func (o *LogObserver) Observe(rule string, index int, satisfied bool) {
	o.log.Debug("Rule evaluated",
		logger.String("rule", rule),
		logger.Int("index", index),
		logger.Bool("satisfied", satisfied),
	)
}

// MetricsObserver counts observed evaluations in Prometheus
type MetricsObserver struct{}

// NewMetricsObserver creates a MetricsObserver
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// Observe implements Observer
func (o *MetricsObserver) Observe(rule string, _ int, satisfied bool) {
	ruleEvaluationsTotal.WithLabelValues(rule, resultLabel(satisfied)).Inc()
}

func resultLabel(satisfied bool) string {
	if satisfied {
		return "satisfied"
	}
	return "unsatisfied"
}

// Observers fans an evaluation out to every non-nil observer in order
func Observers(observers ...Observer) Observer {
	active := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			active = append(active, o)
		}
	}
	return multiObserver(active)
}

type multiObserver []Observer

func (m multiObserver) Observe(rule string, index int, satisfied bool) {
	for _, o := range m {
		o.Observe(rule, index, satisfied)
	}
}
