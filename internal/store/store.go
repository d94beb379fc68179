package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kovalenq/pressroom/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateGenerationResult(ctx context.Context, result *models.GenerationResult) error
	ListGenerationResultsBySession(ctx context.Context, sessionKey string) ([]*models.GenerationResult, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error
	DeleteJob(ctx context.Context, id uuid.UUID) error
	DeleteExpiredJobs(ctx context.Context, cutoff time.Time) (int64, error)
}

type jobUpdateParams struct {
	ErrorMessage *string
	Sections     []models.TextSection
}

type JobUpdateOption func(*jobUpdateParams)

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}

func WithSections(sections []models.TextSection) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Sections = sections
	}
}
