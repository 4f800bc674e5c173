package audit

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type clientIPKey struct{}

// WithClientIP returns a copy of ctx carrying the caller's address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the address stored by WithClientIP, or "" when the
// statement did not originate from a network request.
func ClientIP(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// ClientIPMiddleware resolves the caller's address with chi's RealIP
// (X-Real-IP, X-Forwarded-For, then the socket) and stores it in the
// request context.
func ClientIPMiddleware(next http.Handler) http.Handler {
	return middleware.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
	}))
}
