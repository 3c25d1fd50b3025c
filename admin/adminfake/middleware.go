package adminfake

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type contextKey string

const contextKeyAdminID contextKey = "admin_id"

func chainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (b *Backend) publicMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		b.loggingMiddleware,
	}
}

func (b *Backend) protectedMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return append(b.publicMiddleware(), b.requireBearer)
}

func (b *Backend) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Msg("[adminfake] request")
		next(w, r)
	}
}

// requireBearer rejects requests without a valid access token with 401.
func (b *Backend) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		accessToken, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || accessToken == "" {
			writeError(w, http.StatusUnauthorized, "Missing authorization token")
			return
		}
		adminID, err := b.issuer.verify(accessToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Token has expired")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), contextKeyAdminID, adminID)))
	}
}
