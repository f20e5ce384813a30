package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
	"github.com/angelmondragon/suuq-marketplace/pkg/types"
)

const requestIDHeader = types.RequestIDHeader

// Inbound ids from the storefront or a proxy are kept only when they are
// short and log-safe.
var requestIDRe = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestID tags the request with a correlation id, reusing a well-formed
// inbound X-Request-Id and minting a uuid otherwise. The id is echoed on the
// response so error envelopes and support tickets can quote it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if !requestIDRe.MatchString(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
