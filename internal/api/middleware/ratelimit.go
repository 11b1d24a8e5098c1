package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"
	"github.com/Ali-LB/dbcc/internal/platform/metrics"
)

// Limiter reports whether key may proceed and how long until its window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RateLimit throttles route per client IP. When the limiter itself fails the
// request is let through.
func RateLimit(limiter Limiter, route string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, retryAfter, err := limiter.Allow(r.Context(), route+":"+ip)
			if err != nil {
				log.Warn("rate limiter unavailable, allowing request",
					slog.String("route", route), slog.String("ip", ip), sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.RateLimited.WithLabelValues(route).Inc()
				w.Header().Set("Retry-After", retryAfterSeconds(retryAfter))
				common.RespondWithDomainError(w, common.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds d up to whole seconds, never below one.
func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
