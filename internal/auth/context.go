package auth

import "context"

type contextKey struct{}

type AuthContext struct {
	UserID    string
	SessionID string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return WithAuth(ctx, AuthContext{UserID: userID})
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}
