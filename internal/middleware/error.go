package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorHandlingMiddleware catches panics and converts them to 500 responses
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					w.Header().Set("Content-Type", "text/html; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte("<html><body><h1>Something went wrong</h1><p>Try again later.</p></body></html>"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
