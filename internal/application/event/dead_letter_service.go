package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutboxAdminRepository is the slice of outbox storage operators need
type OutboxAdminRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error)
	FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error)
	Update(ctx context.Context, entry *shared.OutboxEntry) error
	CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error)
}

// ErrEntryNotFound is returned for unknown outbox entry IDs
var ErrEntryNotFound = shared.NewDomainError("ENTRY_NOT_FOUND", "Outbox entry not found")

// retryAllBatch bounds how many dead entries are loaded per page when requeueing
const retryAllBatch = 100

// DeadLetterService lets operators inspect order events that exhausted their
// delivery retries and put them back in the queue
type DeadLetterService struct {
	repo   OutboxAdminRepository
	logger *zap.Logger
}

// NewDeadLetterService creates a new dead letter service
func NewDeadLetterService(repo OutboxAdminRepository, logger *zap.Logger) *DeadLetterService {
	return &DeadLetterService{repo: repo, logger: logger}
}

// EntryDTO is an outbox entry without its payload
type EntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PageFilter selects one page of dead letters
type PageFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Stats counts outbox entries per delivery status
type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// ListDead returns a page of dead entries and the total count
func (s *DeadLetterService) ListDead(ctx context.Context, filter PageFilter) ([]EntryDTO, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}

	entries, total, err := s.repo.FindDead(ctx, f.Page, f.PageSize)
	if err != nil {
		s.logger.Error("Failed to list dead letters", zap.Error(err))
		return nil, 0, err
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos, total, nil
}

// Get returns one entry in any status
func (s *DeadLetterService) Get(ctx context.Context, id uuid.UUID) (*EntryDTO, error) {
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toEntryDTO(entry)
	return &dto, nil
}

// Retry moves one dead entry back to pending
func (s *DeadLetterService) Retry(ctx context.Context, id uuid.UUID) (*EntryDTO, error) {
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Dead letter requeued",
		zap.String("entry_id", id.String()),
		zap.String("event_type", entry.EventType),
	)
	dto := toEntryDTO(entry)
	return &dto, nil
}

// RetryAll requeues every dead entry and returns how many were requeued.
// Each requeued entry leaves the DEAD set, so the first page is reloaded
// until it comes back empty or nothing on it could be requeued.
func (s *DeadLetterService) RetryAll(ctx context.Context) (int64, error) {
	var requeued int64
	for {
		entries, _, err := s.repo.FindDead(ctx, 1, retryAllBatch)
		if err != nil {
			return requeued, err
		}

		progressed := false
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Warn("Failed to requeue dead letter", zap.String("entry_id", entry.ID.String()), zap.Error(err))
				continue
			}
			requeued++
			progressed = true
		}

		if len(entries) < retryAllBatch || !progressed {
			break
		}
	}

	s.logger.Info("Dead letters requeued", zap.Int64("count", requeued))
	return requeued, nil
}

// Stats summarizes the outbox by status
func (s *DeadLetterService) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (s *DeadLetterService) find(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) || (err == nil && entry == nil) {
		return nil, ErrEntryNotFound
	}
	return entry, err
}

func toEntryDTO(e *shared.OutboxEntry) EntryDTO {
	return EntryDTO{
		ID:            e.ID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Status:        string(e.Status),
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
