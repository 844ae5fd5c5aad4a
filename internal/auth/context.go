package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxClientKey
	ctxRole
)

func WithIdentity(ctx context.Context, userID, clientKey, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxClientKey, clientKey)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

// ClientKey returns the client a token is scoped to. Operators have none.
func ClientKey(ctx context.Context) (string, error) {
	v := ctx.Value(ctxClientKey)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("client_key not in context")
}

func Role(ctx context.Context) (string, error) {
	v := ctx.Value(ctxRole)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}
