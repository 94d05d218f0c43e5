package memory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	approval "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
)

type instruments struct {
	requests    metric.Int64Counter
	resolutions metric.Int64Counter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	requests, err := meter.Int64Counter("macae.approval.requests",
		metric.WithDescription("Approval requests created"))
	if err != nil {
		return nil, err
	}
	resolutions, err := meter.Int64Counter("macae.approval.resolutions",
		metric.WithDescription("Approval requests resolved by outcome"))
	if err != nil {
		return nil, err
	}
	return &instruments{requests: requests, resolutions: resolutions}, nil
}

func (i *instruments) requested(ctx context.Context, checkpoint approval.Checkpoint) {
	if i == nil {
		return
	}
	i.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("checkpoint", string(checkpoint))))
}

func (i *instruments) resolved(ctx context.Context, checkpoint approval.Checkpoint, resolution approval.Resolution) {
	if i == nil {
		return
	}
	i.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("checkpoint", string(checkpoint)),
		attribute.String("resolution", string(resolution)),
	))
}
