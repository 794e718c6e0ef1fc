// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package provider

import (
	"sync"
	"time"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
	"github.com/sigil-dev/ragd/pkg/health"
)

// DefaultHealthCooldown is how long a provider reports unavailable after
// a failed call.
const DefaultHealthCooldown = 30 * time.Second

// HealthTracker records the outcome of upstream embedding and chat calls
// for one provider. A failure opens a cooldown window during which the
// provider reports unavailable; a success closes it early. The tracker
// never blocks calls, it only feeds availability and the status report.
type HealthTracker struct {
	mu       sync.Mutex
	now      func() time.Time
	cooldown time.Duration

	failures    int64
	consecutive int64
	lastFailure time.Time
	lastErr     string
	downUntil   time.Time
}

// NewHealthTracker returns a tracker that starts available.
func NewHealthTracker(cooldown time.Duration) (*HealthTracker, error) {
	if cooldown <= 0 {
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"health tracker cooldown must be positive, got %s", cooldown)
	}
	return &HealthTracker{now: time.Now, cooldown: cooldown}, nil
}

func (h *HealthTracker) availableAt(t time.Time) bool {
	return h.downUntil.IsZero() || !t.Before(h.downUntil)
}

func (h *HealthTracker) IsHealthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.availableAt(h.now())
}

// RecordSuccess ends any cooldown and resets the consecutive failure run.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutive = 0
	h.downUntil = time.Time{}
}

// RecordFailure starts a new cooldown window from now and keeps err's
// message for the status report.
func (h *HealthTracker) RecordFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	h.failures++
	h.consecutive++
	h.lastFailure = now
	h.downUntil = now.Add(h.cooldown)
	if err != nil {
		h.lastErr = err.Error()
	}
}

func (h *HealthTracker) SetNowFunc(fn func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = fn
}

// HealthMetrics snapshots the tracker. CooldownUntil is set while a
// failure has not been cleared by a success, even once the window passed.
func (h *HealthTracker) HealthMetrics() health.Metrics {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := health.Metrics{
		Available:           h.availableAt(h.now()),
		FailureCount:        h.failures,
		ConsecutiveFailures: h.consecutive,
		LastError:           h.lastErr,
	}
	if h.failures > 0 {
		last := h.lastFailure
		m.LastFailureAt = &last
	}
	if !h.downUntil.IsZero() {
		until := h.downUntil
		m.CooldownUntil = &until
	}
	return m
}
