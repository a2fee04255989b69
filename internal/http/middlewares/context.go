package middlewares

import "context"

type ctxKey string

const (
	ctxClaimsKey    ctxKey = "claims"
	ctxUserIDKey    ctxKey = "user_id"
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta las claims del bearer en el contexto.
func WithClaims(ctx context.Context, claims map[string]any) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetClaims retorna nil si no hubo bearer.
func GetClaims(ctx context.Context) map[string]any {
	if m, ok := ctx.Value(ctxClaimsKey).(map[string]any); ok {
		return m
	}
	return nil
}

// GetUserID retorna "" para requests anónimos.
func GetUserID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxUserIDKey).(string); ok {
		return s
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

// ClaimString extrae un string de las claims.
func ClaimString(claims map[string]any, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}
