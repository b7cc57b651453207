package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pivotcli/internal/infrastructure"
)

// Pipeline executes steps one by one and stops at the first failure.
type Pipeline struct {
	steps     []Step
	telemetry *infrastructure.Telemetry
	logger    *slog.Logger
}

// NewPipeline creates a pipeline over steps. telemetry may be nil.
func NewPipeline(telemetry *infrastructure.Telemetry, logger *slog.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		steps:     steps,
		telemetry: telemetry,
		logger:    infrastructure.WithComponent(logger, "pipeline"),
	}
}

// Run executes every step against state. On failure the returned error is an
// *OperationError naming the step, and the remaining steps are skipped.
func (p *Pipeline) Run(ctx context.Context, state *OperationState) error {
	for _, step := range p.steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}

	ctx, span := p.telemetry.StartSpan(ctx, "pipeline.run",
		attribute.String("run_id", state.ID),
		attribute.Int("steps", len(p.steps)))

	state.Start()
	p.logger.InfoContext(ctx, "Pipeline started", slog.Int("step_count", len(p.steps)))

	for i, step := range p.steps {
		if err := p.executeStep(ctx, state, step, i); err != nil {
			p.skipRemaining(state, i, step.ID())
			state.Fail(err)
			infrastructure.EndSpan(span, err)
			p.logger.ErrorContext(ctx, "Pipeline failed",
				slog.String("step", step.ID()),
				slog.Duration("duration", state.Duration()),
				slog.String("error", err.Error()))
			return err
		}
	}

	state.Complete()
	infrastructure.EndSpan(span, nil)
	p.logger.InfoContext(ctx, "Pipeline completed", slog.Duration("duration", state.Duration()))
	return nil
}

func (p *Pipeline) executeStep(ctx context.Context, state *OperationState, step Step, index int) error {
	stepState := state.GetStep(step.ID())

	if err := ctx.Err(); err != nil {
		cancelErr := NewCancellationError(step.ID(), err)
		stepState.Fail(cancelErr)
		return cancelErr
	}

	if err := step.Validate(state); err != nil {
		valErr := WrapError(err, step.ID(), "validation failed")
		if valErr.Type == ErrorTypeExecution {
			valErr.Type = ErrorTypeValidation
		}
		stepState.Fail(valErr)
		return valErr
	}

	stepCtx, span := p.telemetry.StartSpan(ctx, "stage."+step.ID(),
		attribute.String("stage", step.ID()),
		attribute.Int("stage_number", index+1))

	p.logger.InfoContext(stepCtx, "Executing step",
		slog.String("step", step.ID()),
		slog.String("name", step.Name()),
		slog.Int("step_number", index+1),
		slog.Int("total_steps", len(p.steps)))

	stepState.Start()
	start := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(start)

	p.telemetry.StageMetrics().RecordStage(stepCtx, step.ID(), duration, err)
	infrastructure.EndSpan(span, err)

	if err != nil {
		stepState.Fail(err)
		return WrapError(err, step.ID(), fmt.Sprintf("%s failed", step.Name()))
	}

	stepState.Complete(fmt.Sprintf("%s completed", step.Name()))
	p.logger.InfoContext(stepCtx, "Step completed",
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

func (p *Pipeline) skipRemaining(state *OperationState, failed int, failedID string) {
	for _, step := range p.steps[failed+1:] {
		state.GetStep(step.ID()).Skip(fmt.Sprintf("previous step %s did not complete", failedID))
	}
}
