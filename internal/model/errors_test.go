package model

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exitErrorWithStatus produces a real *exec.ExitError by running a shell
// that exits with the given status.
func exitErrorWithStatus(t *testing.T, status int) error {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	err := exec.CommandContext(context.Background(), "sh", "-c", fmt.Sprintf("exit %d", status)).Run()
	require.Error(t, err)
	return err
}

func TestExitCodeOf(t *testing.T) {
	t.Run("nil is success", func(t *testing.T) {
		assert.Equal(t, ExitSuccess, ExitCodeOf(nil))
	})

	t.Run("plain error is general", func(t *testing.T) {
		assert.Equal(t, ExitGeneralError, ExitCodeOf(errors.New("boom")))
	})

	t.Run("CLIError code", func(t *testing.T) {
		err := fmt.Errorf("step 5: %w", NewCLIError(ExitArchiveError, "bad zip"))
		assert.Equal(t, ExitArchiveError, ExitCodeOf(err))
	})

	// The child's status wins over the category code so the shell sees
	// exactly what the failing tool returned.
	t.Run("child exit status propagates", func(t *testing.T) {
		child := exitErrorWithStatus(t, 128)
		err := WrapCLIError(ExitGitError, "git clone failed", child)
		assert.Equal(t, ExitCode(128), ExitCodeOf(err))
	})
}
