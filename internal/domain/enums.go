package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownValue is returned when an enum string has no matching constant.
var ErrUnknownValue = errors.New("unknown enum value")

// LifecycleStage is the active/deleted state of experiments and runs.
type LifecycleStage string

const (
	LifecycleActive  LifecycleStage = "active"
	LifecycleDeleted LifecycleStage = "deleted"
)

// RunStatus is the execution status of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunScheduled RunStatus = "scheduled"
	RunFinished  RunStatus = "finished"
	RunFailed    RunStatus = "failed"
	RunKilled    RunStatus = "killed"
)

// SourceType is the kind of source a run was launched from.
type SourceType string

const (
	SourceNotebook SourceType = "Notebook"
	SourceJob      SourceType = "Job"
	SourceProject  SourceType = "Project"
	SourceLocal    SourceType = "Local"
	SourceRecipe   SourceType = "Recipe"
	SourceUnknown  SourceType = "Unknown"
)

// ModelVersionStage is the registry stage of a model version.
type ModelVersionStage string

const (
	StageNone            ModelVersionStage = "None"
	StageStaging         ModelVersionStage = "Staging"
	StageProduction      ModelVersionStage = "Production"
	StageArchived        ModelVersionStage = "Archived"
	StageDeletedInternal ModelVersionStage = "Deleted_Internal"
)

// ParseLifecycleStage accepts the lower, title and upper case spellings.
func ParseLifecycleStage(s string) (LifecycleStage, error) {
	return parseEnum(s, LifecycleActive, LifecycleDeleted)
}

// ParseRunStatus accepts the lower, title and upper case spellings.
func ParseRunStatus(s string) (RunStatus, error) {
	return parseEnum(s, RunRunning, RunScheduled, RunFinished, RunFailed, RunKilled)
}

// ParseSourceType accepts the lower, title and upper case spellings.
func ParseSourceType(s string) (SourceType, error) {
	return parseEnum(s, SourceNotebook, SourceJob, SourceProject, SourceLocal, SourceRecipe, SourceUnknown)
}

// ParseModelVersionStage accepts the lower, title and upper case spellings.
func ParseModelVersionStage(s string) (ModelVersionStage, error) {
	return parseEnum(s, StageNone, StageStaging, StageProduction, StageArchived, StageDeletedInternal)
}

func parseEnum[T ~string](s string, values ...T) (T, error) {
	for _, v := range values {
		canonical := string(v)
		lower := strings.ToLower(canonical)
		title := strings.ToUpper(lower[:1]) + lower[1:]
		switch s {
		case canonical, lower, title, strings.ToUpper(canonical):
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %q", ErrUnknownValue, s)
}
