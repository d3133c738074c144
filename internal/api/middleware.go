package api

import (
	"net/http"
	"strconv"

	usageservice "clubhub/internal/services/usage"
	"clubhub/pkg/logger"
)

// identityFromRequest resolves the rate-limit key for a request.
// Authenticated callers are keyed by user id, everyone else by remote
// address so anonymous traffic cannot share one window.
func identityFromRequest(r *http.Request) string {
	if userID := r.Header.Get("X-User-ID"); userID != "" {
		return userID
	}
	return r.RemoteAddr
}

// rateLimitMiddleware applies the fixed-window limiter to every request.
// Zero max and window defer to the manager's configured defaults.
func rateLimitMiddleware(manager *usageservice.Manager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := manager.CheckRateLimit(r.Context(), identityFromRequest(r), 0, 0)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.MaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if result.Limited {
				w.Header().Set("Retry-After", strconv.FormatInt(result.ResetInSeconds, 10))
				writeJSON(w, http.StatusTooManyRequests, errorResponse{
					Error: "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs every request at debug level
func loggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debugw("Request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
