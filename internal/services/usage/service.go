package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clubhub/internal/domain/usage"
	"clubhub/internal/metrics"
	"clubhub/pkg/logger"
)

// Service is the durable usage ledger.
//
// Write failures are deliberately swallowed: recording happens after the
// AI response has already been obtained, and an accounting failure must
// never block it. Every swallowed error is logged.
type Service struct {
	repo usage.Repository
	log  *logger.Logger
}

// NewService creates a new usage ledger service
func NewService(repo usage.Repository, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("service", "usage"),
	}
}

// Record appends one consumption entry to the ledger.
// Returns false instead of an error on storage failure so callers can
// degrade gracefully.
func (s *Service) Record(ctx context.Context, userID string, tokensUsed int, model, requestType string) bool {
	if userID == "" || tokensUsed < 0 {
		s.log.Warnw("Dropping invalid usage entry",
			"user_id", userID,
			"tokens", tokensUsed,
		)
		return false
	}

	entry := &usage.Log{
		ID:          uuid.New(),
		UserID:      userID,
		TokensUsed:  tokensUsed,
		Model:       model,
		RequestType: requestType,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.log.Errorw("Failed to record usage, continuing without it",
			"user_id", userID,
			"tokens", tokensUsed,
			"model", model,
			"error", err,
		)
		metrics.UsageRecords.WithLabelValues("error").Inc()
		return false
	}

	metrics.UsageRecords.WithLabelValues("success").Inc()
	metrics.TokensRecorded.WithLabelValues(model, requestType).Add(float64(tokensUsed))

	return true
}

// TotalUsage returns the sum of tokens the user has ever consumed
func (s *Service) TotalUsage(ctx context.Context, userID string) (int64, error) {
	return s.repo.TotalTokens(ctx, userID)
}

// UsageByModel returns the user's per-model aggregates, heaviest first
func (s *Service) UsageByModel(ctx context.Context, userID string) ([]*usage.ModelUsage, error) {
	return s.repo.UsageByModel(ctx, userID)
}

// AggregateStats summarizes ledger activity over a trailing window
func (s *Service) AggregateStats(ctx context.Context, window time.Duration) (*usage.AggregateStats, error) {
	return s.repo.AggregateStats(ctx, window)
}

// ListRecent returns the user's newest entries, newest first
func (s *Service) ListRecent(ctx context.Context, userID string, limit int) ([]*usage.Log, error) {
	return s.repo.ListRecent(ctx, userID, limit)
}
