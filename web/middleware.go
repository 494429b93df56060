package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const contextKeyUser contextKey = "user"

// UserHeader names the user a request acts for.
const UserHeader = "X-User-ID"

// userFrom returns the user stored by requireUser.
func userFrom(ctx context.Context) string {
	user, _ := ctx.Value(contextKeyUser).(string)
	return user
}

// requireUser rejects requests without a user.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(UserHeader)
		if user == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing "+UserHeader+" header")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth rejects users that have not sent the auth token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())
		ok, err := s.sessions.Authenticated(r.Context(), user)
		if err != nil {
			s.logger.Error().Err(err).Str("user", user).Msg("failed to read session")
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if !ok {
			writeJSONError(w, http.StatusForbidden, "forbidden", "Please send the auth token first.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs every request once it is served.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			s.logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()

		next.ServeHTTP(ww, r)
	})
}
