package license

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Monitor re-checks the stored license on an interval and keeps the latest
// result for request gating.
type Monitor struct {
	authority *Authority
	interval  time.Duration

	mu     sync.RWMutex
	latest Validation
}

// NewMonitor creates a Monitor. Until the first check completes, Current
// reports no license.
func NewMonitor(authority *Authority, interval time.Duration) *Monitor {
	return &Monitor{
		authority: authority,
		interval:  interval,
		latest:    Validation{Err: ErrNoLicense},
	}
}

// Run checks immediately and then on every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	log.Info().Dur("interval", m.interval).Msg("starting license monitor")
	m.CheckNow(ctx)

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("license monitor shutting down")
			return
		case <-timer.C:
			m.CheckNow(ctx)
			timer.Reset(m.interval)
		}
	}
}

// CheckNow runs one stored-license check and records its result. A storage
// failure keeps the previous result.
func (m *Monitor) CheckNow(ctx context.Context) Validation {
	res, err := m.authority.CheckStored(ctx)
	if err != nil {
		log.Error().Err(err).Msg("license check failed")
		return m.Current()
	}
	m.Set(res)
	if !res.Valid {
		log.Warn().Str("reason", res.Message()).Bool("expired", res.Expired).Msg("no valid license")
	}
	return res
}

// Set records v as the latest result, e.g. after an activation.
func (m *Monitor) Set(v Validation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = v
}

// Current returns the latest result.
func (m *Monitor) Current() Validation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}
