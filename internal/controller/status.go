package controller

import (
	"context"

	"atxcontrol/pkg/atx"

	"go.uber.org/zap"
)

// resolveStatus senses the power status through the active status driver.
// Every failure collapses to PowerUnknown. Caller holds the read lock.
func (c *Controller) resolveStatus(ctx context.Context, in *inner) atx.PowerStatus {
	cfg := in.config.Status

	switch cfg.Driver {
	case atx.StatusDriverMiot:
		if in.miotBackend == nil {
			return atx.PowerUnknown
		}
		status, err := in.miotBackend.GetPowerStatus(ctx, cfg.Prop, cfg.OnValue)
		if err != nil {
			c.logger.Debug("MiIoT status query failed", zap.Error(err))
			return atx.PowerUnknown
		}
		return status

	case atx.StatusDriverLed:
		if in.ledSensor == nil {
			return atx.PowerUnknown
		}
		status, err := in.ledSensor.Read(ctx)
		if err != nil {
			c.logger.Debug("LED sensor read failed", zap.Error(err))
			return atx.PowerUnknown
		}
		return status

	default:
		return atx.PowerUnknown
	}
}
