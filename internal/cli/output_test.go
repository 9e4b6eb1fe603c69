package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitError_Message(t *testing.T) {
	err := NewExitError(ExitFailure, "boom")
	assert.Equal(t, "boom", err.Error())
}

func TestExitError_WrapsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := WrapExitError(ExitCommandError, "failed to open detection log", cause)

	assert.Equal(t, "failed to open detection log: disk on fire", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}
