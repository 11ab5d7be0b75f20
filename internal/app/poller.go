package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lovary/lovary/internal/api"
	"github.com/lovary/lovary/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// Source is the part of the API client the refresher reads.
type Source interface {
	Me(ctx context.Context) (api.User, error)
	PartnerRequests(ctx context.Context) ([]api.PartnerRequest, error)
	PartnerDiaries(ctx context.Context) ([]api.Diary, error)
}

// Authenticator reports whether a session token is held.
type Authenticator interface {
	IsAuthenticated() bool
}

// Poller refreshes the store in the background.
type Poller struct {
	trigger chan struct{}
}

// Refresh asks for an immediate refresh. It never blocks.
func (p *Poller) Refresh() {
	if p == nil {
		return
	}
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// StartPoller launches a background goroutine that refreshes the store at a
// fixed cadence while the session is authenticated, backing off after
// consecutive failures. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, source Source, auth Authenticator, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Poller{trigger: make(chan struct{}, 1)}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			case <-p.trigger:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			refresh(ctx, store, source, auth, logger)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
	return p
}

// calculateBackoff doubles the interval per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func refresh(ctx context.Context, store *state.Store, source Source, auth Authenticator, logger *zap.Logger) {
	if auth != nil && !auth.IsAuthenticated() {
		store.Reset()
		return
	}
	me, err := source.Me(ctx)
	if err != nil {
		store.Update(nil, nil, nil, fmt.Errorf("load profile: %w", err))
		logger.Warn("profile refresh failed", zap.Error(err))
		return
	}
	requests, err := source.PartnerRequests(ctx)
	if err != nil {
		store.Update(nil, nil, nil, fmt.Errorf("load partner requests: %w", err))
		logger.Warn("partner request refresh failed", zap.Error(err))
		return
	}
	var diaries []api.Diary
	if me.HasPartner() {
		diaries, err = source.PartnerDiaries(ctx)
		if err != nil {
			store.Update(nil, nil, nil, fmt.Errorf("load partner diaries: %w", err))
			logger.Warn("partner diary refresh failed", zap.Error(err))
			return
		}
	}
	store.Update(&me, requests, diaries, nil)
	logger.Debug("refreshed",
		zap.Int("partner_requests", len(requests)),
		zap.Int("partner_diaries", len(diaries)),
	)
}
