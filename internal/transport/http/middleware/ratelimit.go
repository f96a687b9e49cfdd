package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"zenpayroll/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type rateLimiter struct {
	instance *limiter.Limiter
	keyFn    RateLimitKeyFunc
}

func newRateLimiter(rate limiter.Rate, keyFn RateLimitKeyFunc) *rateLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	return &rateLimiter{instance: limiter.New(memory.NewStore(), rate), keyFn: keyFn}
}

// ParseRate reads the "<limit>-<period>" format, e.g. 120-M.
func ParseRate(formatted string) (limiter.Rate, error) {
	return limiter.NewRateFromFormatted(formatted)
}

// RateLimit throttles every request per actor, falling back to client IP.
func RateLimit(rate limiter.Rate) func(http.Handler) http.Handler {
	rl := newRateLimiter(rate, actorOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SensitiveRateLimit applies tighter limits to sign-in and money-moving
// routes on top of RateLimit.
func SensitiveRateLimit(base limiter.Rate) func(http.Handler) http.Handler {
	authRate := limiter.Rate{Period: base.Period, Limit: max(base.Limit/4, 1)}
	actorRate := limiter.Rate{Period: base.Period, Limit: max(base.Limit/2, 1)}
	authByIP := newRateLimiter(authRate, clientIPKey)
	authByEmail := newRateLimiter(authRate, emailOrIPKey)
	byActor := newRateLimiter(actorRate, actorOrIPKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !authByIP.enforce(w, r) || !authByEmail.enforce(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !byActor.enforce(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if rl.instance.Rate.Limit <= 0 {
		return true
	}
	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	state, err := rl.instance.Get(r.Context(), key)
	if err != nil {
		slog.Warn("rate limiter unavailable", "err", err)
		return true
	}

	resetIn := max(int(time.Until(time.Unix(state.Reset, 0)).Seconds()), 0)
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetIn))

	if state.Reached {
		w.Header().Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
		slog.Warn("rate limit exceeded",
			"key", key,
			"path", r.URL.Path,
			"method", r.Method,
			"limit", state.Limit,
		)
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	return true
}

func actorOrIPKey(r *http.Request) string {
	if session, ok := GetSession(r.Context()); ok && session.ID != "" {
		return "session:" + session.ID
	}
	return clientIPKey(r)
}

func emailOrIPKey(r *http.Request) string {
	email := extractJSONField(r, "email")
	if email == "" {
		return clientIPKey(r)
	}
	return "email:" + strings.ToLower(email)
}

func clientIPKey(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func extractJSONField(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

func sensitiveRateScope(r *http.Request) sensitiveScope {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
		return sensitiveScopeNone
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch path {
	case "/auth/login", "/auth/register":
		return sensitiveScopeAuth
	case "/payroll/disburse":
		return sensitiveScopeActor
	}
	if strings.HasPrefix(path, "/leave/requests/") && strings.HasSuffix(path, "/decision") {
		return sensitiveScopeActor
	}
	if strings.HasPrefix(path, "/companies/") && strings.HasSuffix(path, "/insights") {
		return sensitiveScopeActor
	}
	return sensitiveScopeNone
}
