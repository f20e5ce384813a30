package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/suuq-marketplace/api/responses"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
)

// Recoverer turns a handler panic into an INTERNAL_ERROR envelope. It sits
// outside RequestID and Session, so the correlation and shopper ids are read
// back from the response headers those middlewares set.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := fmt.Errorf("handler panic on %s %s: %v", r.Method, r.URL.Path, rec)
				ctx := r.Context()
				if logg != nil {
					fields := map[string]any{
						"panic":  fmt.Sprint(rec),
						"method": r.Method,
						"path":   r.URL.Path,
					}
					if id := w.Header().Get(requestIDHeader); id != "" {
						fields["request_id"] = id
					}
					if session := panickedSession(w, r); session != "" {
						fields["session_id"] = session
					}
					ctx = logg.WithFields(ctx, fields)
					logg.Error(ctx, "request.panic", err)
				}
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "request panicked"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func panickedSession(w http.ResponseWriter, r *http.Request) string {
	if id := w.Header().Get(SessionHeader); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}
