package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/stationtrail/api/internal/store"
)

type ctxKey int

const (
	ctxKeyDevice ctxKey = iota
	ctxKeyAdmin
)

const deviceHeader = "X-Device-ID"

// deviceMiddleware resolves the caller's device identity. Provisioning is
// the client's job; the engine only requires a stable opaque identifier.
func deviceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		device := strings.TrimSpace(r.Header.Get(deviceHeader))
		if device == "" {
			device = strings.TrimSpace(r.URL.Query().Get("device"))
		}
		if device == "" {
			writeError(w, http.StatusUnauthorized, "missing device id")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyDevice, device)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func deviceFrom(r *http.Request) string {
	return r.Context().Value(ctxKeyDevice).(string)
}

func adminAuthMiddleware(admins *store.AdminStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(adminCookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			sess, err := admins.FromSession(r.Context(), cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAdmin, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminFrom(r *http.Request) store.AdminSession {
	return r.Context().Value(ctxKeyAdmin).(store.AdminSession)
}
