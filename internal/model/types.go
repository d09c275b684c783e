package model

import (
	"fmt"
	"regexp"
	"time"
)

// StepKind identifies what a provisioning step does. The kinds map one-to-one
// onto the external tools (or in-process operations) the installer drives.
type StepKind string

const (
	// KindMkdir creates the dependency directory.
	KindMkdir StepKind = "mkdir"

	// KindClone clones a remote repository with `git clone`.
	KindClone StepKind = "clone"

	// KindManifest writes a generated packaging manifest (setup.py).
	KindManifest StepKind = "manifest"

	// KindEditableInstall registers a source tree with `pip install -e`.
	KindEditableInstall StepKind = "editable-install"

	// KindExtract extracts a bundled zip archive in place.
	KindExtract StepKind = "extract"

	// KindModelDownload fetches a pretrained spaCy language model.
	KindModelDownload StepKind = "model-download"

	// KindCheckout moves a working tree to a pinned tag.
	KindCheckout StepKind = "checkout"
)

// String returns the string representation of StepKind.
func (k StepKind) String() string {
	return string(k)
}

// StepStatus represents the lifecycle state of a single step within a run.
// The state transitions are:
//
//	Pending → Running → Succeeded
//	Pending → Running → Failed
//	Pending → Skipped (an earlier step failed)
type StepStatus string

const (
	// StatusPending indicates the step has not started yet.
	StatusPending StepStatus = "pending"

	// StatusRunning indicates the step is currently executing.
	StatusRunning StepStatus = "running"

	// StatusSucceeded indicates the step finished with no error.
	StatusSucceeded StepStatus = "succeeded"

	// StatusFailed indicates the step returned an error and aborted the run.
	StatusFailed StepStatus = "failed"

	// StatusSkipped indicates the step never ran because an earlier
	// step failed.
	StatusSkipped StepStatus = "skipped"
)

// String returns the string representation of StepStatus.
func (s StepStatus) String() string {
	return string(s)
}

// StepInfo describes a planned step. It is what `plan` prints and what
// every StepResult embeds.
type StepInfo struct {
	// Index is the 1-based position of the step within the plan.
	Index int `json:"index" yaml:"index"`

	// Kind is the step's operation type.
	Kind StepKind `json:"kind" yaml:"kind"`

	// Description is a short human-readable summary, e.g.
	// "clone https://github.com/cgpotts/swda.git".
	Description string `json:"description" yaml:"description"`

	// Dir is the working directory the step operates in.
	Dir string `json:"dir" yaml:"dir"`

	// Target is the path the step creates or mutates (clone destination,
	// manifest file, archive), if any.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
}

// StepResult records the outcome of a single step.
type StepResult struct {
	StepInfo

	// Status is the final state of the step.
	Status StepStatus `json:"status"`

	// Duration is the wall-clock time the step took. Zero for skipped steps.
	Duration time.Duration `json:"duration"`

	// Error is the error text for a failed step.
	Error string `json:"error,omitempty"`
}

// Report is the ordered outcome of a provisioning run.
type Report struct {
	// DepsDir is the absolute dependency directory the run provisioned.
	DepsDir string `json:"depsDir"`

	// Steps holds one result per planned step, in plan order.
	Steps []StepResult `json:"steps"`

	// StartedAt is the time the first step began.
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is the time the last executed step ended.
	FinishedAt time.Time `json:"finishedAt"`
}

// Succeeded reports whether every step in the report succeeded.
// An empty report is not considered successful.
func (r *Report) Succeeded() bool {
	if len(r.Steps) == 0 {
		return false
	}
	for _, s := range r.Steps {
		if s.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// FailedStep returns the first failed step, or nil when none failed.
func (r *Report) FailedStep() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Status == StatusFailed {
			return &r.Steps[i]
		}
	}
	return nil
}

// Count returns the number of steps with the given status.
func (r *Report) Count(status StepStatus) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// nameRegex validates directory names for cloned projects: letters, digits,
// dots, underscores, and hyphens; must not start with a dot.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-][a-zA-Z0-9._-]*$`)

// ValidateName checks if the given name is usable as a single directory
// component inside the dependency directory.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid name %q: must be a single path component of letters, digits, '.', '_' or '-'", name)
	}
	return nil
}
