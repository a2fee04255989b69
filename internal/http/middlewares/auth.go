package middlewares

import (
	"net/http"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	httperrors "github.com/manasv777/investiq-hacknc/internal/http/errors"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
)

// BearerConfig configura la identidad opcional por JWT HS256.
type BearerConfig struct {
	Secret []byte
	Issuer string // vacío = no se valida iss
}

// ParseHS256 valida firma y vigencia y devuelve las claims.
func ParseHS256(token string, cfg BearerConfig) (map[string]any, error) {
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(cfg.Issuer))
	}
	tok, err := jwtv5.Parse(token, func(*jwtv5.Token) (any, error) { return cfg.Secret, nil }, opts...)
	if err != nil {
		return nil, err
	}
	claims, _ := tok.Claims.(jwtv5.MapClaims)
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out, nil
}

// WithBearerIdentity asocia el request a un usuario cuando trae
// "Authorization: Bearer <jwt>". Sin header el request sigue anónimo; un
// token inválido es 401. Sin secreto configurado el middleware no hace nada.
func WithBearerIdentity(cfg BearerConfig) Middleware {
	if len(cfg.Secret) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := strings.CutPrefix(ah, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithDetail("expected Bearer scheme"))
				return
			}
			claims, err := ParseHS256(strings.TrimSpace(raw), cfg)
			if err != nil {
				httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithCause(err))
				return
			}
			ctx := WithClaims(r.Context(), claims)
			if sub := ClaimString(claims, "sub"); sub != "" {
				ctx = WithUserID(ctx, sub)
				ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(sub)))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
