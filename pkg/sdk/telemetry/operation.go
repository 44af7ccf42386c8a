// Package telemetry carries multi-step operations as OpenTelemetry spans.
// An operation first emits its full plan as a span attribute, then wraps
// each step in a child span, so a span processor on the CLI side can render
// a live checklist without knowing anything about the operation itself.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	PlanEventName      = "incman.plan"
	PlanVersion        = "1"
	PlanVersionKey     = "incman.plan.version"
	PlanJSONKey        = "incman.plan.json"
	defaultOperationID = "operation"
)

// PlannedStep is one checklist entry. Steps are flat; an operation is an
// ordered list, not a tree.
type PlannedStep struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Plan struct {
	Steps []PlannedStep `json:"steps"`
}

// Operation is a live root span whose child spans are the running steps.
type Operation struct {
	ctx    context.Context
	tracer trace.Tracer
	span   trace.Span
}

// EmitPlan opens the root span for an operation and publishes the plan on
// it, both as attributes and as an event, before any step runs.
func EmitPlan(ctx context.Context, tracer trace.Tracer, operation string, plan Plan) (*Operation, error) {
	if tracer == nil {
		return nil, fmt.Errorf("emit telemetry plan: tracer is required")
	}
	if err := validatePlan(plan); err != nil {
		return nil, fmt.Errorf("emit telemetry plan: %w", err)
	}

	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = defaultOperationID
	}

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("emit telemetry plan: marshal plan: %w", err)
	}

	attrs := []attribute.KeyValue{
		attribute.String(PlanVersionKey, PlanVersion),
		attribute.String(PlanJSONKey, string(planJSON)),
	}
	spanCtx, span := tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
	span.AddEvent(PlanEventName, trace.WithAttributes(attrs...))

	return &Operation{ctx: spanCtx, tracer: tracer, span: span}, nil
}

func (o *Operation) Context() context.Context {
	if o == nil {
		return context.Background()
	}
	return o.ctx
}

// RunStep executes fn inside a child span named by the step id. The step
// failing marks the span and propagates the error unchanged. A nil
// operation degrades to running fn directly, so library code can emit
// telemetry opportunistically.
func (o *Operation) RunStep(ctx context.Context, id string, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}

	stepID := strings.TrimSpace(id)
	if stepID == "" {
		return fmt.Errorf("run telemetry step: step id is required")
	}
	if o == nil || o.tracer == nil {
		return fn(ctx)
	}

	if ctx == nil {
		ctx = o.ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stepCtx, span := o.tracer.Start(ctx, stepID)
	defer span.End()

	err := fn(stepCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
		return err
	}
	return nil
}

// End closes the root span, recording err when the operation failed.
func (o *Operation) End(err error) {
	if o == nil || o.span == nil {
		return
	}
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
	}
	o.span.End()
}

func validatePlan(plan Plan) error {
	seen := make(map[string]struct{}, len(plan.Steps))
	for i, step := range plan.Steps {
		stepID := strings.TrimSpace(step.ID)
		if stepID == "" {
			return fmt.Errorf("step %d has empty id", i)
		}
		if _, exists := seen[stepID]; exists {
			return fmt.Errorf("duplicate step id %q", stepID)
		}
		seen[stepID] = struct{}{}
	}
	return nil
}
