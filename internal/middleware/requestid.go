package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID assigns an X-Request-ID to requests that arrive without one and
// echoes it on the response. Error payloads include it for correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
