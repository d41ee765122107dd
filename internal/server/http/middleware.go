package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/go-chi/chi/v5/middleware"
)

// Authenticate runs the gate for every request. An authenticated principal
// is attached to the request context; an unauthenticated request is passed
// on untouched. Rejections end the request here.
func Authenticate(gate *services.Gate, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			out, err := gate.Evaluate(ctx, r.Header.Get(common.AuthorizationHeaderName))
			if err != nil {
				if errors.Is(err, common.ErrUserNotFound) {
					writeError(w, http.StatusNotFound, "user not found")
					return
				}
				log.Error(ctx, "gate failed", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			switch out.Status {
			case services.StatusAuthenticated:
				r = r.WithContext(auth.WithPrincipal(ctx, out.Principal))
			case services.StatusRejected:
				if errors.Is(out.Reason, common.ErrTokenRevoked) {
					writeError(w, http.StatusUnauthorized, "token revoked")
					return
				}
				writeError(w, http.StatusServiceUnavailable, "authentication unavailable")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth answers 401 for requests without a principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request. The token itself is never logged.
func RequestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Debug(r.Context(), "request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"authorization", r.Header.Get(common.AuthorizationHeaderName) != "",
				"duration", time.Since(start).String(),
			)
		})
	}
}
