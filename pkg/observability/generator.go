/*
Package observability provides instrumentation wrappers for the engine's
ports. The queue exports its own task metrics; this package covers the
generation capability, so a /metrics scrape shows model latency and
failure rates regardless of which adapter sits behind the port.
*/
package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/softgrove/vellum/pkg/ports"
)

var (
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vellum",
		Subsystem: "generator",
		Name:      "requests_total",
		Help:      "Generation requests, by outcome.",
	}, []string{"outcome"})

	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vellum",
		Subsystem: "generator",
		Name:      "request_duration_seconds",
		Help:      "Wall time of one generation request.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	generationChars = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vellum",
		Subsystem: "generator",
		Name:      "reply_chars",
		Help:      "Length of generated replies in characters.",
		Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
	})
)

type instrumentedGenerator struct {
	next ports.Generator
}

// InstrumentGenerator wraps a generator with prometheus metrics.
func InstrumentGenerator(next ports.Generator) ports.Generator {
	return &instrumentedGenerator{next: next}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	start := time.Now()
	reply, err := g.next.Generate(ctx, prompt, opts)
	generationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		generationsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	generationsTotal.WithLabelValues("ok").Inc()
	generationChars.Observe(float64(len(reply)))
	return reply, nil
}
