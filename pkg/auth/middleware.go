package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/keygate/pkg/debug"
	"github.com/rhuss/keygate/pkg/observability"
	"github.com/rhuss/keygate/pkg/transport"
)

// Middleware creates HTTP middleware from a Resolver.
// It checks the bypass list, resolves the request's credentials, and
// injects the identity into the request context.
func Middleware(resolver *Resolver, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := resolver.Authenticate(r.Context(), r)

			if result.Decision != Yes || result.Identity == nil {
				rej := ErrUnauthorized
				if result.Err != nil {
					var target *Rejection
					if errors.As(result.Err, &target) {
						rej = target
					}
				}
				scheme := string(result.Scheme)
				if scheme == "" {
					scheme = "none"
				}
				slog.Warn("authentication failed",
					"request_id", transport.RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"scheme", scheme,
					"error", result.Err,
				)
				observability.AuthDecisionsTotal.WithLabelValues(scheme, "rejected").Inc()
				transport.WriteError(w, rej.Status, rej.Message)
				return
			}

			debug.Log("auth", "authentication succeeded",
				"scheme", result.Identity.Scheme,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			observability.AuthDecisionsTotal.WithLabelValues(string(result.Identity.Scheme), "accepted").Inc()
			if result.Identity.IssuedToken != "" {
				observability.TokensIssuedTotal.WithLabelValues("client-credentials").Inc()
			}
			transport.SetAuthScheme(r.Context(), string(result.Identity.Scheme))

			ctx := SetIdentity(r.Context(), result.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/", "/healthz", "/metrics", "/token"}
