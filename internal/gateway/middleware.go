package gateway

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// corsMiddleware handles CORS headers for the configured origins
func corsMiddleware(allowOrigins string) func(http.Handler) http.Handler {
	origins := map[string]bool{}
	wildcard := false
	for _, o := range strings.Split(allowOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			wildcard = true
		} else if o != "" {
			origins[o] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origins[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// securityHeadersMiddleware adds security headers
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware turns a panic into a generic 500
func recoveryMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithContext(r.Context()).WithFields(map[string]interface{}{
						"panic": rec,
						"stack": string(debug.Stack()),
					}).Error("Handler panicked")
					httputil.WriteError(w, r, log, types.NewInternalError(types.ErrCodeInternalError, "internal server error", nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// authMiddleware resolves the bearer token into the request's actor.
// Requests without a token continue anonymously; handlers that need an
// actor reject them. A token that is present but invalid is rejected here.
func authMiddleware(validator *TokenValidator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httputil.WriteError(w, r, log, types.NewAuthenticationError(types.ErrCodeUnauthorized, "invalid authorization header format"))
				return
			}

			claims, err := validator.ValidateJWT(strings.TrimSpace(parts[1]))
			if err != nil {
				log.WithContext(r.Context()).WithError(err).Warn("Token validation failed")
				httputil.WriteError(w, r, log, types.NewAuthenticationError(types.ErrCodeUnauthorized, "invalid token"))
				return
			}

			ctx := httputil.WithActor(r.Context(), types.ActorFromClaims(claims))
			ctx = logger.ContextWithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rateLimitMiddleware limits each user, or each client address when anonymous
func rateLimitMiddleware(limiter *RateLimiter, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r)
			if actor, ok := httputil.ActorFrom(r.Context()); ok {
				key = "user:" + actor.UserID
			}

			if !limiter.Allow(key) {
				log.WithContext(r.Context()).WithField("client", key).Warn("Rate limit exceeded")
				w.Header().Set("Retry-After", "60")
				httputil.WriteError(w, r, log, &types.LabError{
					Type:    types.ErrorTypeRateLimit,
					Code:    types.ErrCodeRateLimitExceeded,
					Message: "rate limit exceeded",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
