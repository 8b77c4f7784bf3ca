package command

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...(truncated)", Truncate("abc", 2))
}

func needs(t *testing.T, bin string) {
	t.Helper()
	if _, err := exec.LookPath(bin); err != nil {
		t.Skipf("%s not available", bin)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Cmd{Name: "definitely-not-a-real-binary-xyz"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.False(t, ce.Exited())
}

func TestExecRunner_Output(t *testing.T) {
	needs(t, "sh")
	out, err := ExecRunner{}.Run(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "printf hello; echo warn >&2"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out.Stdout))
	assert.Equal(t, "warn", out.Stderr)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	needs(t, "sh")
	c := Cmd{
		Name:        "sh",
		Args:        []string{"-c", "echo " + strings.Repeat("x", 40) + " >&2; exit 3"},
		StderrLimit: 10,
	}
	_, err := ExecRunner{}.Run(context.Background(), c, nil)
	require.Error(t, err)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Exited())
	assert.Equal(t, 3, ce.ExitCode)
	assert.Equal(t, strings.Repeat("x", 10)+"...(truncated)", ce.Stderr)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "sh: exit status 3")
}

func TestExecRunner_Timeout(t *testing.T) {
	needs(t, "sleep")
	start := time.Now()
	_, err := ExecRunner{}.Run(context.Background(), Cmd{Name: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 4*time.Second)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.False(t, ce.Exited())
}

func TestCmd_String(t *testing.T) {
	assert.Equal(t, "pdftotext -enc UTF-8 in.pdf -", Cmd{Name: "pdftotext", Args: []string{"-enc", "UTF-8", "in.pdf", "-"}}.String())
}
