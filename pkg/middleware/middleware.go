package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/facilities/pkg/composables"
	"github.com/iota-uz/facilities/pkg/configuration"
	"github.com/iota-uz/facilities/pkg/constants"
)

// ProvidePool installs the shared pgx pool into every request context.
func ProvidePool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

// RequestID reads the configured request-id header, generating one when
// absent, and echoes it back on the response.
func RequestID() mux.MiddlewareFunc {
	header := strings.TrimSpace(configuration.Use().RequestIDHeader)
	if header == "" {
		header = "X-Request-ID"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(header))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(header, requestID)
			ctx := context.WithValue(r.Context(), constants.RequestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// RequestLogger installs a request-scoped logrus entry and logs every
// request with method, path, status and duration.
func RequestLogger(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := log.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			if requestID, ok := r.Context().Value(constants.RequestIDKey).(string); ok {
				entry = entry.WithField("request_id", requestID)
			}

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(composables.WithLogger(r.Context(), entry)))

			entry.WithFields(logrus.Fields{
				"status":   sw.Status(),
				"duration": time.Since(start).String(),
			}).Info("request completed")
		})
	}
}

// ProvideActor resolves the acting identity from the identity provider
// headers. Authentication itself is an external collaborator; this
// middleware only translates its already-verified claims into an Actor.
func ProvideActor() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID, err := uuid.Parse(r.Header.Get("X-Actor-ID"))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			departmentID, _ := uuid.Parse(r.Header.Get("X-Actor-Department"))

			var roles []string
			for _, role := range strings.Split(r.Header.Get("X-Actor-Roles"), ",") {
				if role = strings.TrimSpace(role); role != "" {
					roles = append(roles, role)
				}
			}

			ctx := composables.WithActor(r.Context(), composables.Actor{
				ID:           actorID,
				DepartmentID: departmentID,
				Roles:        roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
