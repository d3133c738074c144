package usage

import (
	"context"
	"math"
	"sync"
	"time"

	"clubhub/internal/domain/usage"
	"clubhub/internal/metrics"
	"clubhub/pkg/logger"
)

// ManagerConfig carries the tunables the web handlers historically hardcoded
type ManagerConfig struct {
	StatusCacheTTL  time.Duration
	RateLimitMax    int
	RateLimitWindow time.Duration
}

type statusEntry struct {
	status   usage.Status
	cachedAt time.Time
}

// Manager answers "can this user still spend tokens?" and "is this caller
// within its request budget?" without hitting the ledger on every check.
//
// The status cache is invalidated exactly on every locally-observed write
// for a key and implicitly after the TTL; a status older than the most
// recent local write is never served.
type Manager struct {
	service *Service
	windows WindowStore
	cfg     ManagerConfig
	log     *logger.Logger

	mu    sync.RWMutex
	cache map[string]statusEntry
}

// NewManager creates a usage manager over the ledger service
func NewManager(service *Service, windows WindowStore, cfg ManagerConfig, log *logger.Logger) *Manager {
	return &Manager{
		service: service,
		windows: windows,
		cfg:     cfg,
		log:     log.With("service", "usage_manager"),
		cache:   make(map[string]statusEntry),
	}
}

// CheckStatus returns the user's token status, served from cache when the
// cached value is fresh and was computed against the same limit.
// A ledger read failure degrades to "has tokens" and is never cached.
func (m *Manager) CheckStatus(ctx context.Context, userID string, limit int64) usage.Status {
	if cached, ok := m.cachedStatus(userID, limit); ok {
		metrics.StatusCacheLookups.WithLabelValues("hit").Inc()
		return cached
	}
	metrics.StatusCacheLookups.WithLabelValues("miss").Inc()

	total, err := m.service.TotalUsage(ctx, userID)
	if err != nil {
		m.log.Errorw("Failed to read usage total, allowing request",
			"user_id", userID,
			"error", err,
		)
		return usage.Status{
			HasTokens: true,
			Remaining: limit,
			TotalUsed: 0,
			Limit:     limit,
		}
	}

	status := usage.Status{
		HasTokens: total < limit,
		Remaining: max(0, limit-total),
		TotalUsed: total,
		Limit:     limit,
	}

	m.mu.Lock()
	m.cache[userID] = statusEntry{status: status, cachedAt: time.Now()}
	m.mu.Unlock()

	return status
}

// Record appends one usage entry and, on success, evicts the user's cached
// status so the next CheckStatus reflects the new total
func (m *Manager) Record(ctx context.Context, userID string, tokensUsed int, model, requestType string) bool {
	if !m.service.Record(ctx, userID, tokensUsed, model, requestType) {
		return false
	}

	m.InvalidateStatus(userID)
	return true
}

// InvalidateStatus drops the cached status for a user
func (m *Manager) InvalidateStatus(userID string) {
	m.mu.Lock()
	delete(m.cache, userID)
	m.mu.Unlock()
}

// CheckRateLimit applies a fixed-window counter to the identifier.
// Zero max or window fall back to the configured defaults. A window-store
// failure degrades to "allowed" so accounting never blocks the caller.
func (m *Manager) CheckRateLimit(ctx context.Context, identifier string, maxRequests int, window time.Duration) usage.RateLimitResult {
	if maxRequests <= 0 {
		maxRequests = m.cfg.RateLimitMax
	}
	if window <= 0 {
		window = m.cfg.RateLimitWindow
	}

	state, err := m.windows.Hit(ctx, identifier, maxRequests, window)
	if err != nil {
		m.log.Errorw("Rate limit store failed, allowing request",
			"identifier", identifier,
			"error", err,
		)
		return usage.RateLimitResult{
			Limited:     false,
			Remaining:   maxRequests - 1,
			MaxRequests: maxRequests,
		}
	}

	if state.Limited {
		metrics.RateLimitDecisions.WithLabelValues("limited").Inc()
		return usage.RateLimitResult{
			Limited:        true,
			Remaining:      0,
			ResetInSeconds: secondsUntil(state.ResetAt),
			MaxRequests:    maxRequests,
		}
	}

	metrics.RateLimitDecisions.WithLabelValues("allowed").Inc()
	return usage.RateLimitResult{
		Limited:        false,
		Remaining:      maxRequests - state.Count,
		ResetInSeconds: secondsUntil(state.ResetAt),
		MaxRequests:    maxRequests,
	}
}

// ResetRateLimit evicts the window for an identifier
func (m *Manager) ResetRateLimit(ctx context.Context, identifier string) error {
	return m.windows.Reset(ctx, identifier)
}

// cachedStatus returns a fresh cached status computed against the same limit
func (m *Manager) cachedStatus(userID string, limit int64) (usage.Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.cache[userID]
	if !ok {
		return usage.Status{}, false
	}
	if entry.status.Limit != limit {
		return usage.Status{}, false
	}
	if time.Since(entry.cachedAt) >= m.cfg.StatusCacheTTL {
		return usage.Status{}, false
	}

	return entry.status, true
}

// secondsUntil rounds up to whole seconds, never below zero
func secondsUntil(t time.Time) int64 {
	remaining := time.Until(t)
	if remaining <= 0 {
		return 0
	}
	return int64(math.Ceil(remaining.Seconds()))
}
