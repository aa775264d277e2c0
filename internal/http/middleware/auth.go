package middleware

import (
	"io"
	"net/http"
	"strings"

	"agromarket-dispatch/internal/auth"
	"agromarket-dispatch/internal/logx"
)

// Auth validates the Bearer token and stores the actor in the request
// context. Requests without a valid token are rejected with 401.
func Auth(tokens *auth.TokenService, logger logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			actor, err := tokens.Validate(token)
			if err != nil {
				logger.Debug("token rejected", logx.Any("err", err))
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = io.WriteString(w, `{"error":"`+msg+`"}`)
}
