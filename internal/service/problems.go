// Package service provides the companion server's business logic,
// delegating persistence to repository interfaces.
package service

import (
	"context"

	"github.com/liamcryan/ieuler/internal/models"
)

// UserRepository defines the user bookkeeping operations needed by the
// ProblemService.
type UserRepository interface {
	// TouchUser creates the user on first contact and refreshes its
	// last-seen timestamp afterwards.
	TouchUser(ctx context.Context, login string) error
}

// RecordRepository defines the persistence operations needed by the
// ProblemService.
type RecordRepository interface {
	// RecordsForUser retrieves all sync records belonging to the user.
	RecordsForUser(ctx context.Context, login string) ([]models.SyncRecord, error)
	// UpsertRecords inserts new records or field-merges existing ones.
	UpsertRecords(ctx context.Context, login string, records []models.SyncRecord) error
}

// ProblemService implements catalog exchange for authenticated users.
type ProblemService struct {
	users   UserRepository
	records RecordRepository
}

// NewProblemService constructs a ProblemService with the provided
// repositories.
func NewProblemService(users UserRepository, records RecordRepository) *ProblemService {
	return &ProblemService{users: users, records: records}
}

// ProblemsForUser registers the user if needed and returns their stored
// records.
func (s *ProblemService) ProblemsForUser(ctx context.Context, login string) ([]models.SyncRecord, error) {
	if err := s.users.TouchUser(ctx, login); err != nil {
		return nil, err
	}
	return s.records.RecordsForUser(ctx, login)
}

// SaveProblems registers the user if needed and field-merges the pushed
// records into their stored set, returning the stored records afterwards.
func (s *ProblemService) SaveProblems(ctx context.Context, login string, records []models.SyncRecord) ([]models.SyncRecord, error) {
	if err := s.users.TouchUser(ctx, login); err != nil {
		return nil, err
	}
	if err := s.records.UpsertRecords(ctx, login, records); err != nil {
		return nil, err
	}
	return s.records.RecordsForUser(ctx, login)
}
