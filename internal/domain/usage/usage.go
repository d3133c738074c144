package usage

import (
	"time"

	"github.com/google/uuid"
)

// Log represents a single token-consumption event.
// Entries are append-only: once written they are never mutated.
type Log struct {
	ID          uuid.UUID `db:"id"`
	UserID      string    `db:"user_id"`
	TokensUsed  int       `db:"tokens_used"`
	Model       string    `db:"model"`
	RequestType string    `db:"request_type"` // chat, summary, embedding, ...
	CreatedAt   time.Time `db:"created_at"`
}

// ModelUsage aggregates a user's consumption for one model
type ModelUsage struct {
	Model        string    `db:"model"`
	TotalTokens  int64     `db:"total_tokens"`
	RequestCount int64     `db:"request_count"`
	LastUsed     time.Time `db:"last_used"`
}

// AggregateStats summarizes ledger activity over a trailing window
type AggregateStats struct {
	ActiveUsers         int64   `db:"active_users"`
	TotalTokens         int64   `db:"total_tokens"`
	TotalRequests       int64   `db:"total_requests"`
	AvgTokensPerRequest float64 `db:"avg_tokens_per_request"`
}

// Status is the cached answer to "can this user still spend tokens?"
type Status struct {
	HasTokens bool  `json:"has_tokens"`
	Remaining int64 `json:"remaining"`
	TotalUsed int64 `json:"total_used"`
	Limit     int64 `json:"limit"`
}

// RateLimitResult reports a fixed-window rate-limit decision
type RateLimitResult struct {
	Limited        bool  `json:"limited"`
	Remaining      int   `json:"remaining"`
	ResetInSeconds int64 `json:"reset_in_seconds"`
	MaxRequests    int   `json:"max_requests"`
}
