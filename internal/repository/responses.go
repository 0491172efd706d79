package repository

import (
	"context"
	"time"

	"facerate-go/internal/models"

	"gorm.io/gorm"
)

// ResponseRepository appends survey results to Postgres. It satisfies
// persistence.Store.
type ResponseRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{db: db, now: time.Now}
}

// AppendTrial inserts one row into responses_stream.
func (r *ResponseRepository) AppendTrial(ctx context.Context, tr *models.TrialResult) error {
	tr.ServerTimestamp = r.now().UTC()
	return r.db.WithContext(ctx).Create(tr).Error
}

// AppendSession inserts one aggregate row into responses.
func (r *ResponseRepository) AppendSession(ctx context.Context, sp *models.SessionPayload) error {
	sp.ServerTimestamp = r.now().UTC()
	return r.db.WithContext(ctx).Create(sp).Error
}
