package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveStage("classify", time.Now(), nil)
	m.ObserveStage("classify", time.Now(), errors.New("boom"))
	m.IncFetchFailure("listClients")
	m.IncValidation("cpf", true)
	m.IncValidation("cpf", false)
	m.IncValidation("cpf", false)
	m.IncAnswered()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("classify")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchFailures.WithLabelValues("listClients")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Validations.WithLabelValues("cpf", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuestionsAnswered))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStage("fetch", time.Now(), nil)
		m.IncFetchFailure("x")
		m.IncValidation("cnpj", true)
		m.IncAnswered()
	})
}
