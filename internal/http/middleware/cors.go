package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware lets the directory pages call the API from their own
// origin. An empty allow list accepts any origin without credentials.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "Retry-After"},
		MaxAge:         600,
	}
	if len(allowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	} else {
		// the visitor cookie only travels with credentialed requests
		opts.AllowCredentials = true
	}

	c := cors.New(opts)
	return c.Handler
}
