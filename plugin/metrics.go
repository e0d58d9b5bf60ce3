package plugin

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/BaSui01/speechflow/speech"
)

var (
	speechInvokesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_invokes_total",
			Help: "Total speech model invokes by model type, model, and outcome code.",
		},
		[]string{"model_type", "model", "code"},
	)
	speechInvokeDurationMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "speech_invoke_duration_ms",
			Help:    "Speech model invoke duration in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"model_type", "model"},
	)
	speechCredentialChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_credential_checks_total",
			Help: "Total provider credential checks by outcome.",
		},
		[]string{"provider", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		speechInvokesTotal,
		speechInvokeDurationMs,
		speechCredentialChecksTotal,
	)
}

func observeInvoke(modelType speech.ModelType, model string, started time.Time, err error) {
	code := "ok"
	if err != nil {
		code = string(speech.CodeOf(err))
		if code == "" {
			code = "error"
		}
	}
	speechInvokesTotal.WithLabelValues(string(modelType), model, code).Inc()
	speechInvokeDurationMs.WithLabelValues(string(modelType), model).
		Observe(float64(time.Since(started).Milliseconds()))
}

func observeCredentialCheck(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	speechCredentialChecksTotal.WithLabelValues(provider, outcome).Inc()
}
