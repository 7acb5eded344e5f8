package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter throttles outgoing requests to a provider
type Limiter interface {
	// Wait blocks until a request may be sent or ctx is done
	Wait(ctx context.Context) error
}

// Config holds the rate limit of a single provider
type Config struct {
	// RequestsPerSecond is the sustained request rate; zero or negative disables limiting
	RequestsPerSecond float64
	// Burst is the number of requests allowed at once, at least 1
	Burst int
}

// NewLimiter creates a limiter for the given config
func NewLimiter(cfg Config) Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return unlimited{}
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &localLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
}

type localLimiter struct {
	limiter *rate.Limiter
}

func (l *localLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

type unlimited struct{}

func (unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
