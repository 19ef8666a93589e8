package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	cb "github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ResilientConfig bounds traffic to a backing store
type ResilientConfig struct {
	Name            string        `yaml:"name"`
	RPS             float64       `yaml:"rps"`
	Burst           int           `yaml:"burst"`
	BreakerInterval time.Duration `yaml:"breaker_interval"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
}

// DefaultResilientConfig returns the limits used when none are configured
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		Name:            "object-store",
		RPS:             20,
		Burst:           40,
		BreakerInterval: 60 * time.Second,
		BreakerTimeout:  60 * time.Second,
	}
}

// Resilient wraps an ObjectStore with a token bucket and a circuit breaker.
// ErrNotFound does not count as a failure.
type Resilient struct {
	next    ObjectStore
	limiter *rate.Limiter
	breaker *cb.CircuitBreaker
}

// NewResilient decorates next
func NewResilient(next ObjectStore, cfg ResilientConfig) *Resilient {
	st := cb.Settings{Name: cfg.Name}
	st.Interval = cfg.BreakerInterval
	st.Timeout = cfg.BreakerTimeout
	st.ReadyToTrip = readyToTrip
	st.IsSuccessful = func(err error) bool {
		return err == nil || isNotFound(err)
	}
	st.OnStateChange = func(name string, from, to cb.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
			Msg("Store circuit breaker state change")
	}

	return &Resilient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: cb.NewCircuitBreaker(st),
	}
}

// Trips after 3 consecutive failures, or above a 5% failure rate once 20
// requests have been seen in the interval.
func readyToTrip(counts cb.Counts) bool {
	if counts.ConsecutiveFailures >= 3 {
		return true
	}
	if counts.Requests < 20 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
}

// Name is the breaker name
func (r *Resilient) Name() string {
	return r.breaker.Name()
}

// State reports the breaker state: "closed", "half-open" or "open"
func (r *Resilient) State() string {
	return r.breaker.State().String()
}

func (r *Resilient) Get(ctx context.Context, key string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.next.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (r *Resilient) List(ctx context.Context, pattern string) ([]string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.next.List(ctx, pattern)
	})
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

// Watch forwards to the wrapped store when it supports watching
func (r *Resilient) Watch(ctx context.Context, fn func(key string)) error {
	w, ok := r.next.(Watcher)
	if !ok {
		return fmt.Errorf("store does not support watching")
	}
	return w.Watch(ctx, fn)
}
