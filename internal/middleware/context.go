package middleware

import (
	"context"

	"event-site/internal/auth"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey = contextKey("user")

// UserInfo is the signed-in user of the current request.
type UserInfo struct {
	ID       int64
	Username string
	Role     string
}

// IsAdmin reports whether the request is made by an administrator.
func (u *UserInfo) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

// GetUserInfo retrieves the user information from the request context.
func GetUserInfo(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	// Return an anonymous user if no user info is found in the context.
	return &UserInfo{Role: auth.RoleAnonymous}
}

// SetUserInfo adds the user information to the request context.
func SetUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, userInfo)
}
