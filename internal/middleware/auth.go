package middleware

import (
	"context"
	"net/http"
	"strings"

	"walletapi/internal/auth"
	"walletapi/internal/services"
)

type contextKey string

const principalKey contextKey = "principal"

const (
	PrincipalSession = "session"
	PrincipalAPIKey  = "api_key"
)

// Principal is the authenticated caller. Session principals hold every
// capability; api_key principals only the permissions granted at issue time.
type Principal struct {
	UserID      string
	Email       string
	Type        string
	Permissions []string
}

func (p Principal) HasPermission(permission string) bool {
	if p.Type == PrincipalSession {
		return true
	}
	for _, granted := range p.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalKey).(Principal)
	return principal, ok
}

type APIKeyValidator interface {
	Validate(ctx context.Context, plainKey string) (*services.ValidatedKey, error)
}

// Auth resolves the caller from either a Bearer session token or an X-API-Key
// header, in that order. Requests carrying neither are rejected.
func Auth(secret string, keys APIKeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header := r.Header.Get("Authorization"); header != "" {
				parts := strings.SplitN(header, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
					http.Error(w, "invalid authorization header", http.StatusUnauthorized)
					return
				}
				claims, err := auth.ParseToken(secret, parts[1])
				if err != nil {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				principal := Principal{
					UserID: claims.UserID,
					Email:  claims.Email,
					Type:   PrincipalSession,
				}
				next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
				return
			}

			if plainKey := r.Header.Get("X-API-Key"); plainKey != "" {
				validated, err := keys.Validate(r.Context(), plainKey)
				if err != nil {
					http.Error(w, "unable to verify api key", http.StatusInternalServerError)
					return
				}
				if validated == nil {
					http.Error(w, "invalid api key", http.StatusUnauthorized)
					return
				}
				principal := Principal{
					UserID:      validated.UserID,
					Email:       validated.Email,
					Type:        PrincipalAPIKey,
					Permissions: validated.Permissions,
				}
				next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
				return
			}

			http.Error(w, "missing credentials", http.StatusUnauthorized)
		})
	}
}

func withPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}
