package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err    *Error
		kind   Kind
		status int
	}{
		{Validation("bad"), KindValidation, http.StatusBadRequest},
		{Conflict("taken", cause), KindConflict, http.StatusBadRequest},
		{Upload("upload failed", cause), KindUpload, http.StatusInternalServerError},
		{Internal("broken", cause), KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.err.Kind)
			assert.Equal(t, tc.status, tc.err.Status)
		})
	}
}

func TestAs(t *testing.T) {
	cause := errors.New("cdn down")
	wrapped := fmt.Errorf("register: %w", Upload("Failed to upload avatar image", cause))
	joined := errors.Join(wrapped, errors.New("cleanup failed"))

	got, ok := As(joined)
	require.True(t, ok)
	assert.Equal(t, "Failed to upload avatar image", got.Message)
	assert.ErrorIs(t, joined, cause)
	assert.Equal(t, "Failed to upload avatar image: cdn down", got.Error())

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
