package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	StageDuration     *prometheus.HistogramVec
	StageFailures     *prometheus.CounterVec
	FetchFailures     *prometheus.CounterVec
	Validations       *prometheus.CounterVec
	QuestionsAnswered prometheus.Counter
}

// New registers all collectors on reg. A nil reg uses a private registry,
// which keeps tests from colliding on the global one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "techsync_assistant_stage_duration_seconds",
			Help:    "Duration of assistant pipeline stages",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		StageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techsync_assistant_stage_failures_total",
			Help: "Pipeline-fatal failures by stage",
		}, []string{"stage"}),
		FetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techsync_assistant_fetch_failures_total",
			Help: "Fetch entries replaced by an error placeholder, by operation",
		}, []string{"operation"}),
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techsync_document_validations_total",
			Help: "CPF/CNPJ validations by kind and result",
		}, []string{"kind", "valid"}),
		QuestionsAnswered: f.NewCounter(prometheus.CounterOpts{
			Name: "techsync_assistant_questions_answered_total",
			Help: "Questions that went through all pipeline stages",
		}),
	}
}

// ObserveStage records how long a stage ran and whether it failed.
func (m *Metrics) ObserveStage(stage string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	if err != nil {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) IncFetchFailure(op string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) IncValidation(kind string, valid bool) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	v := "false"
	if valid {
		v = "true"
	}
	m.Validations.WithLabelValues(kind, v).Inc()
}

func (m *Metrics) IncAnswered() {
	if m == nil {
		return
	}
	m.QuestionsAnswered.Inc()
}
