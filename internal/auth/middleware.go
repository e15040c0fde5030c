package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/airtrack/airtrack/internal/platform/httpx"
	"github.com/airtrack/airtrack/internal/shared"
)

// TokenVerifier resolves bearer tokens.
type TokenVerifier interface {
	Verify(token string) (shared.Identity, error)
}

// Middleware guards routes with bearer-token authentication.
type Middleware struct {
	Tokens TokenVerifier
	Logger *slog.Logger
}

// RequireBearer rejects requests without a valid token and stores the caller
// identity in the request context.
func (m Middleware) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httpx.RespondError(w, shared.ErrUnauthorized, "Unauthorized: missing bearer token")
			return
		}
		identity, err := m.Tokens.Verify(token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("bearer rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			httpx.RespondError(w, err, "Unauthorized: Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
