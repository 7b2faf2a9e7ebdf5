package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := BackendUnavailable("connection refused", nil)
	assert.Equal(t, "[ERR_301_BACKEND_UNAVAILABLE] connection refused", err.Error())
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("indexing note: %w", BackendBadResponse("status 500", nil))
	assert.True(t, errors.Is(err, New(CodeBackendBadResponse, "", nil)))
	assert.False(t, errors.Is(err, New(CodeBackendUnavailable, "", nil)))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := BackendUnavailable("backend unreachable", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestRetryable(t *testing.T) {
	assert.True(t, IsRetryable(BackendUnavailable("down", nil)))
	assert.False(t, IsRetryable(BackendBadResponse("bad json", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeNoteNotFound, GetCode(NoteNotFound("Missing")))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}
