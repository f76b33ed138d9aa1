package resterr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/disgoorg/disgo/rest"
	"github.com/stretchr/testify/assert"
)

func restError(status int) error {
	return &rest.Error{Response: &http.Response{StatusCode: status}}
}

func TestClassification(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		err := restError(http.StatusNotFound)
		assert.True(t, IsNotFound(err))
		assert.False(t, IsForbidden(err))
		assert.True(t, IsIgnorable(err))
	})

	t.Run("forbidden", func(t *testing.T) {
		err := restError(http.StatusForbidden)
		assert.True(t, IsForbidden(err))
		assert.False(t, IsNotFound(err))
		assert.True(t, IsIgnorable(err))
	})

	t.Run("bad request", func(t *testing.T) {
		err := restError(http.StatusBadRequest)
		assert.True(t, IsBadRequest(err))
		assert.True(t, IsIgnorable(err))
	})

	t.Run("server error is not ignorable", func(t *testing.T) {
		err := restError(http.StatusInternalServerError)
		assert.False(t, IsNotFound(err))
		assert.False(t, IsIgnorable(err))
	})

	t.Run("wrapped errors unwrap", func(t *testing.T) {
		err := fmt.Errorf("fetching user: %w", restError(http.StatusNotFound))
		assert.True(t, IsNotFound(err))
	})

	t.Run("transport errors are never definitive", func(t *testing.T) {
		err := errors.New("connection reset by peer")
		assert.False(t, IsNotFound(err))
		assert.False(t, IsIgnorable(err))
	})
}
