package sfm

import "fmt"

// Stage names an engine operation.
type Stage string

// The pipeline stages, in the order they run.
const (
	StageCreateDatabase Stage = "create_database"
	StageExtract        Stage = "feature_extraction"
	StageApplyRigs      Stage = "rig_configuration"
	StageMatch          Stage = "feature_matching"
	StageReconstruct    Stage = "reconstruction"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageCreateDatabase, StageExtract, StageApplyRigs, StageMatch, StageReconstruct}

// EngineFailureError is returned when an engine stage fails. It aborts the whole run.
type EngineFailureError struct {
	Stage Stage
	Err   error
}

// NewEngineFailureError returns an *EngineFailureError.
func NewEngineFailureError(stage Stage, err error) error {
	return &EngineFailureError{Stage: stage, Err: err}
}

func (e *EngineFailureError) Error() string {
	return fmt.Sprintf("engine failure during %s: %v", e.Stage, e.Err)
}

func (e *EngineFailureError) Unwrap() error {
	return e.Err
}
