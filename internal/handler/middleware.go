package handler

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/rohitdesai-dev/gatepass/internal/model"
)

// Identity headers set by the trusted gateway in front of this
// service. The core does not verify them; it only requires their
// presence for authenticated operations.
const (
	headerUserID    = "X-User-ID"
	headerUserPhone = "X-User-Phone"
)

type identityKey struct{}

// Identity extracts the caller identity from the trusted headers and
// attaches it to the request context. Requests without the headers
// pass through with no identity; services fail those with
// ErrUnauthenticated where one is required.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID != "" {
			ident := &model.Identity{
				UserID: userID,
				Phone:  r.Header.Get(headerUserPhone),
			}
			r = r.WithContext(context.WithValue(r.Context(), identityKey{}, ident))
		}
		next.ServeHTTP(w, r)
	})
}

// identityFrom returns the caller identity, or nil when the request
// was unauthenticated.
func identityFrom(ctx context.Context) *model.Identity {
	ident, _ := ctx.Value(identityKey{}).(*model.Identity)
	return ident
}

// Logger logs one structured line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": chimiddleware.GetReqID(r.Context()),
		}).Info("request")
	})
}

// CORS applies a permissive CORS policy suitable for the web client.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+headerUserID+", "+headerUserPhone)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
