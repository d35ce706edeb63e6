// Package ratelimit paces outbound requests per key (e.g. per guild) with a
// token bucket that slows down after the remote side rate limits us and
// recovers gradually on success. It never retries anything itself.
//
// Example usage:
//
//	lim := ratelimit.NewKeyed(ratelimit.Config{Initial: 5, Min: 1, Max: 10, StepUp: 1, StepDown: 0.5})
//	if err := lim.Wait(ctx, guildID); err != nil {
//	    return err
//	}
//	if err := send(); isTooManyRequests(err) {
//	    lim.RateLimited(guildID)
//	} else if err == nil {
//	    lim.Success(guildID)
//	}
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// recoveryDelay is how long a limiter stays at its reduced rate after being
// rate limited before Success may raise it again.
const recoveryDelay = 10 * time.Second

// Config describes the rate bounds, in requests per second.
type Config struct {
	Initial  rate.Limit
	Min      rate.Limit
	Max      rate.Limit
	StepUp   rate.Limit // added on success
	StepDown float64    // multiplier applied when rate limited, e.g. 0.5
}

// =============================================================================
// Limiter
// =============================================================================

// AdaptiveLimiter is a token bucket whose rate moves between Min and Max.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	cfg       Config
	lastError time.Time
	now       func() time.Time
}

// NewAdaptiveLimiter creates an AdaptiveLimiter. Min and Initial are raised to
// at least one request per second.
func NewAdaptiveLimiter(cfg Config) *AdaptiveLimiter {
	if cfg.Min < 1 {
		cfg.Min = 1
	}
	if cfg.Initial < cfg.Min {
		cfg.Initial = cfg.Min
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = cfg.Initial
	}
	if cfg.StepDown <= 0 || cfg.StepDown >= 1 {
		cfg.StepDown = 0.5
	}
	return &AdaptiveLimiter{
		limiter: rate.NewLimiter(cfg.Initial, burstFor(cfg.Initial)),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Wait blocks until a token is available or the context is canceled.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the rate by StepUp, unless the limiter was rate limited
// recently.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.now().Sub(a.lastError) > recoveryDelay {
		a.adjustLimit(a.limiter.Limit() + a.cfg.StepUp)
	}
}

// RateLimited scales the rate down by StepDown.
func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = a.now()
	a.adjustLimit(rate.Limit(float64(a.limiter.Limit()) * a.cfg.StepDown))
}

// CurrentLimit returns the current requests per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) adjustLimit(newLimit rate.Limit) {
	if newLimit > a.cfg.Max {
		newLimit = a.cfg.Max
	} else if newLimit < a.cfg.Min {
		newLimit = a.cfg.Min
	}
	if newLimit != a.limiter.Limit() {
		a.limiter.SetLimit(newLimit)
		a.limiter.SetBurst(burstFor(newLimit))
	}
}

// =============================================================================
// Keyed
// =============================================================================

// Keyed holds one AdaptiveLimiter per key, created on first use.
type Keyed struct {
	mu       sync.Mutex
	cfg      Config
	limiters map[string]*AdaptiveLimiter
}

func NewKeyed(cfg Config) *Keyed {
	return &Keyed{cfg: cfg, limiters: make(map[string]*AdaptiveLimiter)}
}

func (k *Keyed) get(key string) *AdaptiveLimiter {
	k.mu.Lock()
	defer k.mu.Unlock()
	lim, ok := k.limiters[key]
	if !ok {
		lim = NewAdaptiveLimiter(k.cfg)
		k.limiters[key] = lim
	}
	return lim
}

func (k *Keyed) Wait(ctx context.Context, key string) error { return k.get(key).Wait(ctx) }
func (k *Keyed) Success(key string)                         { k.get(key).Success() }
func (k *Keyed) RateLimited(key string)                     { k.get(key).RateLimited() }
func (k *Keyed) CurrentLimit(key string) float64            { return k.get(key).CurrentLimit() }

func burstFor(l rate.Limit) int {
	if b := int(l); b > 1 {
		return b
	}
	return 1
}
