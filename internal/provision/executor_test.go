package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
)

// fakePlan builds a plan of n steps whose actions record their index in
// calls. fail maps a 1-based index to the error that step returns.
func fakePlan(n int, calls *[]int, fail map[int]error) *Plan {
	plan := &Plan{Layout: &Layout{DepsDir: "/deps"}}
	for i := 1; i <= n; i++ {
		idx := i
		plan.Steps = append(plan.Steps, Step{
			StepInfo: model.StepInfo{Index: idx, Kind: model.KindClone, Description: "fake"},
			Action: func(ctx context.Context) error {
				*calls = append(*calls, idx)
				return fail[idx]
			},
		})
	}
	return plan
}

func TestExecute_AllSucceed(t *testing.T) {
	var calls []int
	report, err := NewExecutor(nil).Execute(context.Background(), fakePlan(4, &calls, nil))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, calls)
	assert.True(t, report.Succeeded())
	assert.Equal(t, "/deps", report.DepsDir)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

// TestExecute_StopsAtFirstFailure verifies strict-failure mode: nothing after
// the failing step runs, and the later steps are reported skipped.
func TestExecute_StopsAtFirstFailure(t *testing.T) {
	var calls []int
	boom := model.NewCLIError(model.ExitArchiveError, "archive not found")

	report, err := NewExecutor(nil).Execute(context.Background(), fakePlan(5, &calls, map[int]error{3: boom}))
	require.Error(t, err)

	assert.Equal(t, []int{1, 2, 3}, calls)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 3, stepErr.Step.Index)
	assert.Equal(t, 5, stepErr.Total)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, model.ExitArchiveError, model.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "step 3/5")

	assert.Equal(t, model.StatusSucceeded, report.Steps[1].Status)
	assert.Equal(t, model.StatusFailed, report.Steps[2].Status)
	assert.Equal(t, "archive not found", report.Steps[2].Error)
	assert.Equal(t, model.StatusSkipped, report.Steps[3].Status)
	assert.Equal(t, model.StatusSkipped, report.Steps[4].Status)
	assert.False(t, report.Succeeded())
}

// TestExecute_Cancelled checks that a cancelled context aborts before the
// next step starts and maps to the interrupt exit code.
func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls []int
	plan := fakePlan(3, &calls, nil)
	plan.Steps[0].Action = func(context.Context) error {
		calls = append(calls, 1)
		cancel()
		return nil
	}

	report, err := NewExecutor(nil).Execute(ctx, plan)
	require.Error(t, err)

	assert.Equal(t, []int{1}, calls)
	assert.Equal(t, model.ExitInterrupted, model.ExitCodeOf(err))
	assert.Equal(t, model.StatusSucceeded, report.Steps[0].Status)
	assert.Equal(t, model.StatusFailed, report.Steps[1].Status)
	assert.Equal(t, model.StatusSkipped, report.Steps[2].Status)
}

// TestExecute_FailureDuringCancellation attributes an action error to the
// interrupt when the context was cancelled while it ran.
func TestExecute_FailureDuringCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls []int
	plan := fakePlan(2, &calls, nil)
	plan.Steps[0].Action = func(context.Context) error {
		cancel()
		return errors.New("signal: killed")
	}

	_, err := NewExecutor(nil).Execute(ctx, plan)
	require.Error(t, err)
	assert.Equal(t, model.ExitInterrupted, model.ExitCodeOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, calls)
}
