package middleware

import "net/http"

// RequirePermission gates a route on a capability. Session principals always
// pass; api_key principals must have been granted the permission.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !principal.HasPermission(permission) {
				http.Error(w, "api key lacks the "+permission+" permission", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession restricts a route to interactive session callers; api keys
// can never reach key management no matter their grants.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if principal.Type != PrincipalSession {
			http.Error(w, "session authentication required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
