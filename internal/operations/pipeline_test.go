package operations

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pivotcli/internal/errors"
	"pivotcli/internal/shared/testutil"
)

type fakeStep struct {
	BaseStage
	calls       *[]string
	err         error
	validateErr error
}

func newFakeStep(id string, calls *[]string, err error) *fakeStep {
	return &fakeStep{BaseStage: NewBaseStage(id, "step "+id), calls: calls, err: err}
}

func (s *fakeStep) Validate(state *OperationState) error {
	return s.validateErr
}

func (s *fakeStep) Execute(ctx context.Context, state *OperationState) error {
	*s.calls = append(*s.calls, s.ID())
	if s.err == nil {
		state.SetArtifact(s.ID(), "/tmp/"+s.ID())
	}
	return s.err
}

func TestPipeline_RunsInOrder(t *testing.T) {
	var calls []string
	p := NewPipeline(nil, nil,
		newFakeStep("fetch", &calls, nil),
		newFakeStep("aggregate", &calls, nil),
		newFakeStep("persist", &calls, nil),
	)
	state := NewOperationState("run-1")

	require.NoError(t, p.Run(context.Background(), state))

	assert.Equal(t, []string{"fetch", "aggregate", "persist"}, calls)
	assert.Equal(t, []string{"fetch", "aggregate", "persist"}, state.Order)
	assert.Equal(t, OperationStatusCompleted, state.Status)
	for _, id := range state.Order {
		assert.Equal(t, StepStatusCompleted, state.GetStep(id).Status)
	}
	assert.Len(t, state.Artifacts, 3)
}

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	var calls []string
	cause := apperrors.NewElementNotFoundError(".wp-block-button__link", "https://example.com")
	p := NewPipeline(nil, nil,
		newFakeStep("fetch", &calls, cause),
		newFakeStep("aggregate", &calls, nil),
		newFakeStep("persist", &calls, nil),
	)
	state := NewOperationState("run-2")

	err := p.Run(context.Background(), state)
	require.Error(t, err)

	assert.Equal(t, []string{"fetch"}, calls)
	assert.Equal(t, "fetch", FailedStep(err))
	assert.Equal(t, ErrorTypeExecution, GetErrorType(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeElementNotFound))
	assert.Contains(t, err.Error(), "ELEMENT_NOT_FOUND")

	assert.Equal(t, OperationStatusFailed, state.Status)
	assert.Equal(t, StepStatusFailed, state.GetStep("fetch").Status)
	assert.Equal(t, StepStatusSkipped, state.GetStep("aggregate").Status)
	assert.Equal(t, StepStatusSkipped, state.GetStep("persist").Status)
	assert.Empty(t, state.Artifacts)
}

func TestPipeline_ValidationFailure(t *testing.T) {
	var calls []string
	bad := newFakeStep("aggregate", &calls, nil)
	bad.validateErr = errors.New("raw export missing")
	p := NewPipeline(nil, nil, newFakeStep("fetch", &calls, nil), bad, newFakeStep("persist", &calls, nil))

	err := p.Run(context.Background(), NewOperationState("run-3"))
	require.Error(t, err)

	assert.Equal(t, []string{"fetch"}, calls)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Equal(t, "aggregate", FailedStep(err))
}

func TestPipeline_Cancelled(t *testing.T) {
	var calls []string
	p := NewPipeline(nil, nil, newFakeStep("fetch", &calls, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, NewOperationState("run-4"))
	require.Error(t, err)
	assert.Empty(t, calls)
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "fetch", "x"))

	existing := NewValidationError("", "bad input")
	wrapped := WrapError(existing, "aggregate", "ignored")
	assert.Same(t, existing, wrapped)
	assert.Equal(t, "aggregate", wrapped.Step)

	plain := WrapError(errors.New("disk full"), "persist", "Persist pivot failed")
	assert.Equal(t, "[execution] persist: Persist pivot failed: disk full", plain.Error())
	assert.Equal(t, "", FailedStep(errors.New("other")))
}

func TestStepState_Lifecycle(t *testing.T) {
	s := NewStepState("fetch", "Fetch export")
	assert.Equal(t, StepStatusPending, s.Status)
	assert.Zero(t, s.Duration())

	s.Start()
	assert.Equal(t, StepStatusActive, s.Status)

	s.Complete("done")
	assert.Equal(t, StepStatusCompleted, s.Status)
	assert.Equal(t, "done", s.Message)
	assert.GreaterOrEqual(t, s.Duration().Nanoseconds(), int64(0))
}

func TestPipeline_Logs(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	var calls []string
	p := NewPipeline(nil, logger, newFakeStep("fetch", &calls, nil))
	require.NoError(t, p.Run(context.Background(), NewOperationState("logs-ok")))

	testutil.AssertNoErrors(t, handler)
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Pipeline completed")
	testutil.AssertLogAttr(t, handler, "Executing step", "component", "pipeline")
	testutil.AssertLogAttr(t, handler, "Executing step", "step", "fetch")

	failing := NewPipeline(nil, logger, newFakeStep("persist", &calls, apperrors.NewStorageError("disk full", nil)))
	require.Error(t, failing.Run(context.Background(), NewOperationState("logs-fail")))

	testutil.AssertLogContains(t, handler, slog.LevelError, "Pipeline failed")
	testutil.AssertLogAttr(t, handler, "Pipeline failed", "step", "persist")
}
