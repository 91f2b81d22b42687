package api

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/internal"
)

type contextKey string

const userIDKey contextKey = "userID"

// RequireUser extracts the caller identity from the X-User-ID header and
// rejects requests without one. Authentication proper is handled upstream;
// this service trusts the gateway-injected header.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := core.ParseUserID(r.Header.Get("X-User-ID"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFrom returns the authenticated user id placed by RequireUser.
func UserFrom(ctx context.Context) core.UserID {
	if id, ok := ctx.Value(userIDKey).(core.UserID); ok {
		return id
	}
	return ""
}

func requestLogger(logger *internal.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("%s %s -> %d (%v)", r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}
