package transport

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/rhuss/keygate/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to 500 JSON responses. The server continues to accept
// new requests after a panic is recovered.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						"request_id", RequestIDFromContext(r.Context()),
						"path", r.URL.Path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					WriteError(w, http.StatusInternalServerError, api.MsgInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
