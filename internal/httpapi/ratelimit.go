package httpapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
)

// Rate is the window a Limiter counts requests in.
type Rate string

const (
	// PerSecond allows us to accept x requests per second
	PerSecond Rate = "per_second"
	// PerMinute allows us to accept x requests per minute
	PerMinute Rate = "per_minute"
)

const (
	hhmmss = "15:04:05"
	hhmm   = "15:04"
)

type rediser interface {
	TxPipelined(ctx context.Context, fn func(pipe redis.Pipeliner) error) ([]redis.Cmder, error)
}

// Limiter provides rate limiting tooling
type Limiter interface {
	// RateLimit applies basic rate limiting to an HTTP request.
	RateLimit(r *http.Request) error
}

// LimiterFactory creates new Limiters
type LimiterFactory interface {
	// NewLimiter returns a new Limiter.
	NewLimiter(prefix string, rate Rate, max int64) Limiter
}

type factory struct {
	rdb rediser
}

type ratelimiter struct {
	rdb    rediser
	rate   Rate
	max    int64
	prefix string
}

// NewLimiter creates a new Limiter.
func (f *factory) NewLimiter(prefix string, rate Rate, max int64) Limiter {
	return &ratelimiter{
		rdb:    f.rdb,
		prefix: prefix,
		rate:   rate,
		max:    max,
	}
}

// RateLimit counts requests of a User, or of an IP address for
// unauthenticated requests, in fixed windows.
func (l *ratelimiter) RateLimit(r *http.Request) error {
	now := time.Now().Format(hhmm)
	expiry := time.Minute
	if l.rate == PerSecond {
		now = time.Now().Format(hhmmss)
		expiry = time.Second
	}

	id := GetUserID(r)
	if id == "" {
		id = GetIP(r)
	}

	ctx := r.Context()
	key := fmt.Sprintf("%s:%s:%s", l.prefix, id, now)
	key = base64.RawURLEncoding.EncodeToString([]byte(key))

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, expiry)
		return nil
	})

	if err != nil {
		return auth.ErrInfrastructure(fmt.Sprintf("failed to increment counter: %v", err))
	}

	if incr.Val() > l.max {
		return auth.ErrThrottle("requests are throttled, try again later")
	}

	return nil
}

// NewRateLimiter returns a new Limiter.
func NewRateLimiter(db rediser) LimiterFactory {
	return &factory{rdb: db}
}
