package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/softgrove/vellum/pkg/domain"
)

var (
	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vellum",
		Subsystem: "queue",
		Name:      "tasks_total",
		Help:      "Tasks executed, by terminal status.",
	}, []string{"status"})

	taskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vellum",
		Subsystem: "queue",
		Name:      "task_duration_seconds",
		Help:      "Wall time of task execution, including the generation call.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)

func observeTask(status domain.TaskStatus, elapsed time.Duration) {
	tasksTotal.WithLabelValues(string(status)).Inc()
	taskDuration.Observe(elapsed.Seconds())
}
