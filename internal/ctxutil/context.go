// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	chatIDKey    contextKey = "ctxutil.chatID"
	requestIDKey contextKey = "ctxutil.requestID"
)

// WithUserID adds the Telegram user ID of the update's sender.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the user ID, or "" when absent.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// WithChatID adds the Telegram chat ID the update belongs to.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, chatIDKey, chatID)
}

// GetChatID returns the chat ID, or "" when absent.
func GetChatID(ctx context.Context) string {
	chatID, _ := ctx.Value(chatIDKey).(string)
	return chatID
}

// WithRequestID adds a request ID to the context for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// PreserveTracing returns a fresh background context carrying only the
// tracing values of ctx. Use it for work that must outlive ctx, such as a
// schedule lookup that continues after the webhook request has been answered.
func PreserveTracing(ctx context.Context) context.Context {
	out := context.Background()
	if userID := GetUserID(ctx); userID != "" {
		out = WithUserID(out, userID)
	}
	if chatID := GetChatID(ctx); chatID != "" {
		out = WithChatID(out, chatID)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		out = WithRequestID(out, requestID)
	}
	return out
}
