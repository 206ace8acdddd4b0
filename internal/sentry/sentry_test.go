package sentry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialize_EmptyDSNDisables(t *testing.T) {
	assert.NoError(t, Initialize(Config{}))
	assert.False(t, IsEnabled())

	// Capturing while disabled is a no-op.
	CaptureExceptionWithContext(context.Background(), errors.New("ignored"))
}

func TestInitialize_MalformedDSN(t *testing.T) {
	for _, dsn := range []string{"not a url", "https://sentry.example.com/1", "://missing-scheme"} {
		assert.Error(t, Initialize(Config{DSN: dsn}), dsn)
	}
}
