package httpapi

import (
	"net/http"
)

// MockLimiterFactory builds Limiters that never touch Redis. Every
// Limiter it returns fails with Err when Err is set.
type MockLimiterFactory struct {
	Err      error
	Prefixes []string
}

// MockLimiter is a stub for Limiter interface.
type MockLimiter struct {
	Err   error
	Calls int
}

// RateLimit mock.
func (m *MockLimiter) RateLimit(r *http.Request) error {
	m.Calls++
	return m.Err
}

// NewLimiter mock.
func (m *MockLimiterFactory) NewLimiter(prefix string, rate Rate, max int64) Limiter {
	m.Prefixes = append(m.Prefixes, prefix)
	return &MockLimiter{Err: m.Err}
}
