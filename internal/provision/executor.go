package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
)

// StepError reports which step aborted a run. It wraps the step's own
// error so the failing tool's exit status stays reachable.
type StepError struct {
	Step  model.StepInfo
	Total int
	Err   error
}

// Error satisfies the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %d/%d (%s) failed: %v", e.Step.Index, e.Total, e.Step.Kind, e.Err)
}

// Unwrap returns the step's error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Executor runs plans strictly in order.
type Executor struct {
	logger *log.Logger
	now    func() time.Time
}

// NewExecutor creates an Executor that announces steps on logger.
// A nil logger discards output.
func NewExecutor(logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Executor{logger: logger, now: time.Now}
}

// Execute runs every step of plan in order and returns the report.
//
// The first failing step stops the run: its result is marked failed, every
// later step is marked skipped, and a *StepError is returned alongside the
// report. If ctx is cancelled the run stops the same way and the error
// carries ExitInterrupted.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (*model.Report, error) {
	total := len(plan.Steps)
	report := &model.Report{
		DepsDir:   plan.Layout.DepsDir,
		Steps:     make([]model.StepResult, total),
		StartedAt: e.now(),
	}
	for i, s := range plan.Steps {
		report.Steps[i] = model.StepResult{StepInfo: s.StepInfo, Status: model.StatusPending}
	}

	var runErr error
	for i, step := range plan.Steps {
		result := &report.Steps[i]

		if ctxErr := ctx.Err(); ctxErr != nil {
			err := model.WrapCLIError(model.ExitInterrupted, "interrupted", ctxErr)
			runErr = &StepError{Step: step.StepInfo, Total: total, Err: err}
			result.Status = model.StatusFailed
			result.Error = err.Error()
			skipRemaining(report, i+1)
			break
		}

		e.logger.Infof("step %d/%d: %s", step.Index, total, step.Description)
		result.Status = model.StatusRunning
		start := e.now()
		err := step.Action(ctx)
		result.Duration = e.now().Sub(start)

		if err != nil {
			// A tool killed by cancellation reports a signal, not a status;
			// attribute the failure to the interrupt.
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = model.WrapCLIError(model.ExitInterrupted, "interrupted", errors.Join(ctxErr, err))
			}
			runErr = &StepError{Step: step.StepInfo, Total: total, Err: err}
			result.Status = model.StatusFailed
			result.Error = err.Error()
			e.logger.Error("step failed", "step", step.Index, "kind", step.Kind, "err", err)
			skipRemaining(report, i+1)
			break
		}

		result.Status = model.StatusSucceeded
		e.logger.Debug("step done", "step", step.Index, "kind", step.Kind, "elapsed", result.Duration.Round(time.Millisecond))
	}

	report.FinishedAt = e.now()
	return report, runErr
}

// skipRemaining marks every step from index from onwards as skipped.
func skipRemaining(report *model.Report, from int) {
	for j := from; j < len(report.Steps); j++ {
		report.Steps[j].Status = model.StatusSkipped
	}
}
