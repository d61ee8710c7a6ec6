package session

import "net/http"

// Middleware resolves the session cookie and stores the session in the
// request context. Requests without a valid session pass through
// unauthenticated.
func Middleware(manager *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, err := manager.Resolve(r.Context(), r); err == nil {
				r = r.WithContext(WithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests that lack an authenticated session.
// The onReject handler writes the error response.
func RequireAuth(onReject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				onReject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
