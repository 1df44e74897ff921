package application

import (
	"context"
	"time"
)

// MetricsRecorder receives per-operation outcomes and collection sizes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	ObserveSizes(students, sessions int)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
func (noopMetrics) ObserveSizes(int, int)                                 {}
