package operations

import (
	"time"
)

// OperationStatus is the overall status of a run
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
)

// Artifact keys written by the built-in steps
const (
	ArtifactRawExport     = "raw_export"
	ArtifactPivotWorkbook = "pivot_workbook"
	ArtifactDatabase      = "database"
)

// OperationState is the complete state of one run. Steps pass files to each
// other through Artifacts and keep in-memory results in Context.
type OperationState struct {
	ID        string
	Status    OperationStatus
	StartTime time.Time
	EndTime   *time.Time

	Steps map[string]*StepState
	Order []string

	Artifacts map[string]string
	Context   map[string]interface{}

	Error error
}

// NewOperationState creates a new operation state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Artifacts: make(map[string]string),
		Context:   make(map[string]interface{}),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	now := time.Now()
	p.Status = OperationStatusCompleted
	p.EndTime = &now
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	now := time.Now()
	p.Status = OperationStatusFailed
	p.EndTime = &now
	p.Error = err
}

// AddStep registers a step state in execution order
func (p *OperationState) AddStep(state *StepState) {
	if _, ok := p.Steps[state.ID]; !ok {
		p.Order = append(p.Order, state.ID)
	}
	p.Steps[state.ID] = state
}

// GetStep returns the state of a step, or nil
func (p *OperationState) GetStep(id string) *StepState {
	return p.Steps[id]
}

// SetArtifact records the path of a file produced by a step
func (p *OperationState) SetArtifact(key, path string) {
	p.Artifacts[key] = path
}

// Artifact returns the path recorded under key
func (p *OperationState) Artifact(key string) (string, bool) {
	path, ok := p.Artifacts[key]
	return path, ok
}

// SetContext stores an in-memory value for later steps
func (p *OperationState) SetContext(key string, value interface{}) {
	p.Context[key] = value
}

// GetContext returns a value stored by an earlier step
func (p *OperationState) GetContext(key string) (interface{}, bool) {
	v, ok := p.Context[key]
	return v, ok
}

// Duration returns the run duration so far
func (p *OperationState) Duration() time.Duration {
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}
