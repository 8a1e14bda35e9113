package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/itchan-dev/blogfront/shared/logger"
	"github.com/itchan-dev/blogfront/shared/middleware/metrics"
	"github.com/itchan-dev/blogfront/shared/middleware/ratelimiter"
)

// retryAfterSeconds is advertised on 429 responses.
const retryAfterSeconds = 60

// Identity names one way of keying a request. Keys of different identities
// never collide in a shared limiter.
type Identity struct {
	Name string
	Key  func(r *http.Request) (string, error)
}

// ClientIP keys on the connection's remote address.
var ClientIP = Identity{Name: "ip", Key: GetIP}

// FormField keys on a submitted form value, e.g. the login email. Values are
// case-folded.
func FormField(field string) Identity {
	return Identity{Name: field, Key: func(r *http.Request) (string, error) {
		value := strings.ToLower(strings.TrimSpace(r.FormValue(field)))
		if value == "" {
			return "", fmt.Errorf("form field %q is empty", field)
		}
		return value, nil
	}}
}

// RateLimit rejects a request once any of its identities has exhausted its
// bucket. An identity that cannot be determined is skipped.
func RateLimit(rl *ratelimiter.KeyedLimiter, identities ...Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, id := range identities {
				key, err := id.Key(r)
				if err != nil {
					logger.Log.Debug("rate limit identity unavailable", "identity", id.Name, "path", r.URL.Path, "error", err)
					continue
				}
				if !rl.Allow(id.Name + ":" + key) {
					metrics.RateLimited.WithLabelValues(id.Name).Inc()
					logger.Log.Warn("rate limited", "identity", id.Name, "path", r.URL.Path)
					w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
					http.Error(w, "Too many attempts, try again later", http.StatusTooManyRequests)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIP returns the host part of RemoteAddr. Forwarding headers are ignored:
// the frontend is served directly.
func GetIP(r *http.Request) (string, error) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return "", fmt.Errorf("invalid IP address: %s", host)
	}
	return ip.String(), nil
}
