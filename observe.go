package kgclient

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient/internal/metrics"
)

// observer provides logging and metrics for client operations.
type observer struct {
	logger  *zap.Logger
	metrics *metrics.Collectors
}

func newObserver(logger *zap.Logger, m *metrics.Collectors) *observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &observer{logger: logger, metrics: m}
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	o.metrics.ObserveOperation(op, dur, err)

	if err != nil {
		o.logger.Warn("operation failed",
			zap.String("op", op),
			zap.Duration("duration", dur),
			zap.Error(err),
		)
		return
	}
	o.logger.Debug("operation completed",
		zap.String("op", op),
		zap.Duration("duration", dur),
	)
}
