package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		checkFn  func(error) bool
		expected bool
	}{
		{
			name:     "ErrAntiBot is recognized",
			err:      ErrAntiBot,
			checkFn:  IsAntiBot,
			expected: true,
		},
		{
			name:     "Wrapped ErrAntiBot is recognized",
			err:      fmt.Errorf("fetch: %w", ErrAntiBot),
			checkFn:  IsAntiBot,
			expected: true,
		},
		{
			name:     "ErrNetwork is not ErrAntiBot",
			err:      ErrNetwork,
			checkFn:  IsAntiBot,
			expected: false,
		},
		{
			name:     "ErrNetwork is recognized",
			err:      ErrNetwork,
			checkFn:  IsNetwork,
			expected: true,
		},
		{
			name:     "ValidationError is invalid input",
			err:      NewValidationError("group", "empty"),
			checkFn:  IsInvalidInput,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.checkFn(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	err := NewValidationError("subgroup", "must be 1 or 2")

	assert.Equal(t, "subgroup", err.Field)
	assert.Equal(t, "validation failed on subgroup: must be 1 or 2", err.Error())
}

func TestFetchError(t *testing.T) {
	t.Parallel()

	t.Run("with status code", func(t *testing.T) {
		t.Parallel()
		err := NewFetchError("https://example.com", 503, false, ErrNetwork, nil)
		assert.Equal(t, "fetch error (url=https://example.com, status=503, via=direct): network failure", err.Error())
		assert.True(t, errors.Is(err, ErrNetwork))
		assert.False(t, errors.Is(err, ErrAntiBot))
	})

	t.Run("joins cause", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("stopped after 10 redirects")
		err := NewFetchError("https://example.com", 0, true, ErrAntiBot, cause)
		assert.True(t, errors.Is(err, ErrAntiBot))
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "via=proxy")
	})

	t.Run("errors.As through wrapping", func(t *testing.T) {
		t.Parallel()
		wrapped := fmt.Errorf("get schedule: %w", NewFetchError("u", 404, false, ErrNetwork, nil))
		var fe *FetchError
		if assert.True(t, errors.As(wrapped, &fe)) {
			assert.Equal(t, 404, fe.StatusCode)
		}
	})
}
