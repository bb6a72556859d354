package process

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecCapturesOutput(t *testing.T) {
	requireShell(t)

	res, err := Exec(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecExitCode(t *testing.T) {
	requireShell(t)

	res, err := Exec(context.Background(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecKillsOnDeadline(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Exec(ctx, "sh", "-c", "sleep 10")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecMissingBinary(t *testing.T) {
	_, err := Exec(context.Background(), "definitely-not-a-real-binary-4f1c")
	assert.Error(t, err)
}

func TestExecDetachedChildKeepsPipes(t *testing.T) {
	requireShell(t)

	start := time.Now()
	res, err := Exec(context.Background(), "sh", "-c", "echo started; sleep 5 & exit 0")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "started\n", string(res.Stdout))
	assert.Less(t, time.Since(start), 5*time.Second, "returns after the wait delay, not when the child exits")
}
