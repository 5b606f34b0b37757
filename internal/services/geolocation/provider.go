// Package geolocation supplies the reference position for nearest-recipe lookups.
package geolocation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/croustipeze/cookbook/internal/recipe"
)

// Provider returns the current position. Failures are POSITION_UNAVAILABLE errors.
type Provider interface {
	CurrentPosition(ctx context.Context) (recipe.GeoPoint, error)
}

// StaticProvider always reports the same configured point.
type StaticProvider struct {
	Point recipe.GeoPoint
}

func (s StaticProvider) CurrentPosition(ctx context.Context) (recipe.GeoPoint, error) {
	return s.Point, nil
}

// Unavailable is used when no provider is configured.
type Unavailable struct{}

func (Unavailable) CurrentPosition(ctx context.Context) (recipe.GeoPoint, error) {
	return recipe.GeoPoint{}, errors.NewPositionUnavailableError("no geolocation provider is configured", "POSITION_NOT_CONFIGURED", nil)
}

// LastKnownProvider serves the most recent successful reading while it is
// younger than maxAge and otherwise asks the live provider, bounded by timeout.
type LastKnownProvider struct {
	live    Provider
	timeout time.Duration
	maxAge  time.Duration
	now     func() time.Time

	mu     sync.Mutex
	last   recipe.GeoPoint
	readAt time.Time
	valid  bool
}

// NewLastKnownProvider wraps live. A zero maxAge keeps the last reading forever.
func NewLastKnownProvider(live Provider, timeout, maxAge time.Duration) *LastKnownProvider {
	return &LastKnownProvider{live: live, timeout: timeout, maxAge: maxAge, now: time.Now}
}

func (p *LastKnownProvider) CurrentPosition(ctx context.Context) (recipe.GeoPoint, error) {
	if pt, ok := p.LastKnown(); ok {
		return pt, nil
	}
	return p.Refresh(ctx)
}

// LastKnown returns the remembered reading if it is still fresh.
func (p *LastKnownProvider) LastKnown() (recipe.GeoPoint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.valid {
		return recipe.GeoPoint{}, false
	}
	if p.maxAge > 0 && p.now().Sub(p.readAt) > p.maxAge {
		return recipe.GeoPoint{}, false
	}
	return p.last, true
}

// Refresh always reads the live provider and remembers a successful result.
func (p *LastKnownProvider) Refresh(ctx context.Context) (recipe.GeoPoint, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	pt, err := p.live.CurrentPosition(ctx)
	if err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.NewPositionUnavailableError("live position read failed", "POSITION_READ_FAILED", err)
		}
		return recipe.GeoPoint{}, err
	}

	p.mu.Lock()
	p.last, p.readAt, p.valid = pt, p.now(), true
	p.mu.Unlock()
	return pt, nil
}

// ChainProvider tries each provider in order and returns the first reading.
type ChainProvider struct {
	providers []Provider
}

func NewChainProvider(providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

func (c *ChainProvider) CurrentPosition(ctx context.Context) (recipe.GeoPoint, error) {
	var lastErr error
	for i, p := range c.providers {
		pt, err := p.CurrentPosition(ctx)
		if err == nil {
			return pt, nil
		}
		lastErr = err
		if i < len(c.providers)-1 {
			slog.InfoContext(ctx, "Position provider failed, trying next", "error", err.Error())
		}
	}
	if lastErr == nil {
		return Unavailable{}.CurrentPosition(ctx)
	}
	if _, ok := errors.As(lastErr); ok {
		return recipe.GeoPoint{}, lastErr
	}
	return recipe.GeoPoint{}, errors.NewPositionUnavailableError("no position provider succeeded", "POSITION_UNAVAILABLE", lastErr)
}
