package server

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"vridhashram/internal"
	"vridhashram/pkg/types"

	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyPrincipal contextKey = "principal"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		elapsed := time.Since(started)
		s.deps.Metrics.HTTPRequest(r.Method, rw.statusCode, elapsed)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": elapsed.Milliseconds(),
		}).Info("http request")
	})
}

// StripTrailingSlash rewrites /api/x/ to /api/x before routing. API clients
// do not follow redirects on POST, so the path is rewritten in place.
func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path != "/" && strings.HasSuffix(path, "/") {
			r.URL.Path = strings.TrimRight(path, "/")
			if r.URL.Path == "" {
				r.URL.Path = "/"
			}
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth verifies the bearer token (or the session cookie set by login)
// and adds the principal to the request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Verifier == nil {
			s.logger.Error("token verifier not configured")
			s.writeError(w, r, types.ErrUnauthorized)
			return
		}

		accessToken := s.accessToken(r)
		if accessToken == "" {
			s.writeError(w, r, types.ErrUnauthorized)
			return
		}

		principal, err := s.deps.Verifier.Verify(r.Context(), accessToken)
		if err != nil {
			s.logger.WithError(err).Debug("failed to verify access token")
			s.writeError(w, r, types.ErrUnauthorized)
			return
		}

		s.logger.WithFields(logrus.Fields{
			"user_id": principal.UserID,
			"email":   principal.Email,
		}).Debug("authenticated user")

		ctx := context.WithValue(r.Context(), contextKeyPrincipal, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireAuth.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := principalFromContext(r.Context())
		if principal == nil {
			s.writeError(w, r, types.ErrUnauthorized)
			return
		}
		if !principal.InGroup(s.config.AdminGroup) {
			s.writeError(w, r, types.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimit throttles public write endpoints per client IP. Redis failures
// let the request through.
func (s *Service) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.deps.Limiter.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		decision, err := s.deps.Limiter.Allow(r.Context(), s.clientIP(r))
		if err != nil {
			s.logger.WithError(err).Warn("rate limiter unavailable")
		}

		if decision.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}

		if !decision.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(decision.Reset.Seconds())))
			s.writeJSON(w, http.StatusTooManyRequests, errorResponse{Message: "too many requests, please try again later"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) accessToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	cookie, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err != nil {
		return ""
	}

	var accessToken string
	if err := s.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, cookie.Value, &accessToken); err != nil {
		s.logger.WithError(err).Debug("failed to decrypt access token cookie")
		return ""
	}

	return accessToken
}

func principalFromContext(ctx context.Context) *types.Principal {
	principal, _ := ctx.Value(contextKeyPrincipal).(*types.Principal)
	return principal
}

// clientIP is the peer address unless the peer is a trusted proxy, in which
// case X-Forwarded-For is walked from the right and the first hop that is not
// a trusted proxy wins. Entries left of that hop are client supplied.
func (s *Service) clientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}

	if !s.trusted(peer) {
		return peer
	}

	var hops []string
	for _, header := range r.Header.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(header, ",")...)
	}

	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !s.trusted(hop) {
			return hop
		}
	}

	return peer
}

func (s *Service) trusted(ip string) bool {
	if len(s.trustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range s.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
