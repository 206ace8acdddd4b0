package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetChatID(ctx))
	_, ok := GetRequestID(ctx)
	assert.False(t, ok)

	ctx = WithUserID(ctx, "42")
	ctx = WithChatID(ctx, "-1001")
	ctx = WithRequestID(ctx, "req-1")

	assert.Equal(t, "42", GetUserID(ctx))
	assert.Equal(t, "-1001", GetChatID(ctx))
	id, ok := GetRequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)
}

func TestPreserveTracing(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	parent = WithChatID(WithRequestID(parent, "req-2"), "7")
	cancel()
	require.Error(t, parent.Err())

	detached := PreserveTracing(parent)
	assert.NoError(t, detached.Err())
	_, hasDeadline := detached.Deadline()
	assert.False(t, hasDeadline)
	assert.Equal(t, "7", GetChatID(detached))
	assert.Empty(t, GetUserID(detached))
	id, _ := GetRequestID(detached)
	assert.Equal(t, "req-2", id)
}
