package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005"

// Attribute keys set on workflow spans.
const (
	AttrWorkflowID = attribute.Key("macae.workflow.id")
	AttrSequence   = attribute.Key("macae.workflow.sequence")
	AttrSteps      = attribute.Key("macae.workflow.steps")
	AttrStatus     = attribute.Key("macae.workflow.status")
	AttrAgent      = attribute.Key("macae.agent.id")
	AttrStepIndex  = attribute.Key("macae.step.index")
	AttrCheckpoint = attribute.Key("macae.checkpoint")
	AttrMode       = attribute.Key("macae.checkpoint.mode")
	AttrApproved   = attribute.Key("macae.checkpoint.approved")
)

// Provider is an installed tracer provider. Init makes it the global one.
type Provider struct {
	tp     *sdktrace.TracerProvider
	closer io.Closer
}

// Init installs a provider exporting to output with the stdout exporter.
// An empty output or "stdout" writes to os.Stdout; anything else is a file path.
func Init(serviceName, serviceVersion, output string) (*Provider, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if output != "" && output != "stdout" {
		f, err := os.Create(output)
		if err != nil {
			return nil, fmt.Errorf("trace output %v: %w", output, err)
		}
		w, closer = f, f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	p, err := InitWithExporter(serviceName, serviceVersion, exporter)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	p.closer = closer
	return p, nil
}

// InitWithExporter installs a provider over exporter, e.g. OTLP or an
// in-memory exporter in tests.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (*Provider, error) {
	if exporter == nil {
		return nil, errors.New("tracing: nil exporter")
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans and closes the trace file, if any.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	err := p.tp.Shutdown(ctx)
	if p.closer != nil {
		err = errors.Join(err, p.closer.Close())
	}
	return err
}

// Span is a workflow span. A nil *Span is valid and does nothing.
type Span struct {
	span trace.Span
}

func start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	ctx, span := otel.Tracer(instrumentation).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))
	return ctx, &Span{span: span}
}

// StartRun opens the span covering a whole run.
func StartRun(ctx context.Context, workflowID string, sequence []string) (context.Context, *Span) {
	return start(ctx, "workflow.run",
		AttrWorkflowID.String(workflowID),
		AttrSequence.StringSlice(sequence),
		AttrSteps.Int(len(sequence)))
}

// StartStep opens a child span for one agent invocation.
func StartStep(ctx context.Context, agentID string, index int) (context.Context, *Span) {
	return start(ctx, "workflow.step", AttrAgent.String(agentID), AttrStepIndex.Int(index))
}

// StartCheckpoint opens a child span for an approval checkpoint.
func StartCheckpoint(ctx context.Context, workflowID, checkpoint, mode string) (context.Context, *Span) {
	return start(ctx, "workflow.checkpoint",
		AttrWorkflowID.String(workflowID),
		AttrCheckpoint.String(checkpoint),
		AttrMode.String(mode))
}

// Decided records a checkpoint decision.
func (s *Span) Decided(approved bool, feedback string) {
	if s == nil {
		return
	}
	s.span.SetAttributes(AttrApproved.Bool(approved))
	s.span.AddEvent("decision", trace.WithAttributes(
		AttrApproved.Bool(approved),
		attribute.String("feedback", feedback)))
}

// Status records the terminal workflow status.
func (s *Span) Status(status string) {
	if s == nil {
		return
	}
	s.span.SetAttributes(AttrStatus.String(status))
}

// End records err, if any, and ends the span.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
