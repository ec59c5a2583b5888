package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner(t *testing.T) {
	r := NewRunner(false)

	ok := r.Run("sh", "-c", "echo hello; echo oops >&2")
	require.True(t, ok.Success())
	assert.Equal(t, "hello", ok.Stdout)
	assert.Equal(t, "oops", ok.Stderr)
	assert.NoError(t, ok.AsError())

	bad := r.Run("sh", "-c", "exit 3")
	assert.False(t, bad.Success())
	assert.Equal(t, 3, bad.Exit)
	assert.Error(t, bad.AsError())

	missing := r.Run("/nonexistent/binary-for-test")
	assert.False(t, missing.Success())
	assert.Error(t, missing.AsError())
}

func TestDryRunner(t *testing.T) {
	r := NewRunner(true)
	res := r.Run("parted", "-s", "/dev/sda", "rm", "1")
	assert.True(t, res.Success())
	assert.Equal(t, "parted -s /dev/sda rm 1", res.Cmdline)
}

func TestExecV1(t *testing.T) {
	res := ExecV1(NewRunner(false), "echo %s-%d", "part", 1)
	require.True(t, res.Success())
	assert.Equal(t, "part-1", res.Stdout)
}
