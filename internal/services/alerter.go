package services

import (
	"go.uber.org/zap"

	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/internal/errbus"
)

// Alerter is the presentation-side subscriber of the permission-error
// bus: the gateway's analogue of the reference UI's denial toast. It
// logs each denial with the attempted operation and target path so the
// failure is diagnosable even when no stream consumer is attached.
type Alerter struct {
	logger *zap.Logger
	unsub  func()
}

func NewAlerter(bus *errbus.Bus, logger *zap.Logger) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Alerter{logger: logger}
	a.unsub = bus.Subscribe(a.present)
	return a
}

func (a *Alerter) present(perr *domain.PermissionError) {
	fields := []zap.Field{
		zap.String("path", perr.Path),
		zap.String("operation", string(perr.Operation)),
	}
	if perr.RequestResourceData != nil {
		fields = append(fields, zap.Any("request_resource_data", perr.RequestResourceData))
	}
	a.logger.Warn("store operation denied", fields...)
}

// Close unsubscribes from the bus.
func (a *Alerter) Close() {
	if a.unsub != nil {
		a.unsub()
	}
}
