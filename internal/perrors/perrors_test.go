package perrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ClientErrorKeepsCause(t *testing.T) {
	err := NewErrInvalidRequest("Invalid request body", errors.New("unexpected end of JSON input"))

	var perr Err
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadRequest, perr.HttpStatus())
	assert.Equal(t, "unexpected end of JSON input", perr.Error())
	assert.NotEmpty(t, perr.Stacktrace)
}

func TestNew_ServerErrorHidesCause(t *testing.T) {
	err := NewErrInternalServerError("Failed to list projects", errors.New(`pq: relation "projects" does not exist`))

	var perr Err
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusInternalServerError, perr.HttpStatus())
	assert.Equal(t, "Failed to list projects", perr.Error())
	assert.NotContains(t, perr.Error(), "pq:")
}

func TestNew_NilError(t *testing.T) {
	err := New(ErrCodeCapacityExceeded, "Team member is at capacity", nil)

	var perr Err
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusConflict, perr.HttpStatus())
	assert.Equal(t, "error missing", perr.Error())
}
