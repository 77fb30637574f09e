package auth

import "context"

// SetUserIDForTest injects a user ID into the context, letting handler
// tests hit protected routes without minting tokens.
func SetUserIDForTest(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
