package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MetricsRecorder receives business counters. *aws.MetricsClient
// satisfies it.
type MetricsRecorder interface {
	IsEnabled() bool
	RecordCount(ctx context.Context, name string, dimensions map[string]string) error
	RecordValue(ctx context.Context, name string, value float64, dimensions map[string]string) error
}

// businessMetrics sends data points in the background so a slow metrics
// endpoint never delays a request. The zero value is disabled.
type businessMetrics struct {
	rec    MetricsRecorder
	logger *zap.Logger
}

func (b businessMetrics) enabled() bool {
	return b.rec != nil && b.rec.IsEnabled()
}

func (b businessMetrics) count(name string, dims map[string]string) {
	if !b.enabled() {
		return
	}
	go b.send(name, func(ctx context.Context) error { return b.rec.RecordCount(ctx, name, dims) })
}

func (b businessMetrics) value(name string, v float64, dims map[string]string) {
	if !b.enabled() {
		return
	}
	go b.send(name, func(ctx context.Context) error { return b.rec.RecordValue(ctx, name, v, dims) })
}

func (b businessMetrics) send(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil && b.logger != nil {
		b.logger.Debug("metric not recorded", zap.String("metric", name), zap.Error(err))
	}
}
