package httpapi

import (
	"net/http"
)

// OriginChecker decides which origins are echoed back to the browser
type OriginChecker interface {
	IsAllowed(origin string) bool
}

// NewCORSMiddleware echoes allowed origins and always advertises the methods
// and headers the contact form uses. Preflight is answered by the handler.
func NewCORSMiddleware(checker OriginChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if origin := r.Header.Get("Origin"); checker.IsAllowed(origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")

			next.ServeHTTP(w, r)
		})
	}
}
