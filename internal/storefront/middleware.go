package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/fireworks-storefront/internal/session"
	"github.com/sirupsen/logrus"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sf_session"
)

type contextKey int

const sessionIDKey contextKey = iota

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).Debug("Request received")

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"session_id": w.Header().Get(SessionHeader),
				"duration":   time.Since(start).Milliseconds(),
			}).Info("Request completed")
		})
	}
}

func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := "*"
			if len(allowedOrigins) > 0 {
				origin = ""
				for _, o := range allowedOrigins {
					if o == r.Header.Get("Origin") {
						origin = o
						break
					}
				}
			}
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+SessionHeader)
			w.Header().Set("Access-Control-Expose-Headers", SessionHeader)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// sessionMiddleware resolves the session id from the header, then the
// cookie, issuing a new one when neither is present. The id is echoed back
// in both.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				id = cookie.Value
			}
		}
		if id == "" {
			id = session.NewID()
		}

		w.Header().Set(SessionHeader, id)
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionIDKey, id)))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}
