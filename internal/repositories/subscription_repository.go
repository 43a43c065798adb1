package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbm "resellerdash/internal/models/db_models"
)

// Upper bound on ids bound into a single IN clause.
const accountIDChunk = 1000

type SubscriptionRepository interface {
	// FindOverlapping returns records of the given accounts whose date range
	// touches [start, end]. Dates are compared as calendar days.
	FindOverlapping(ctx context.Context, accountIDs []uuid.UUID, start, end time.Time) ([]dbm.SubscriptionRecord, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) FindOverlapping(ctx context.Context, accountIDs []uuid.UUID, start, end time.Time) ([]dbm.SubscriptionRecord, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	var out []dbm.SubscriptionRecord
	for lo := 0; lo < len(accountIDs); lo += accountIDChunk {
		hi := min(lo+accountIDChunk, len(accountIDs))

		var rows []dbm.SubscriptionRecord
		err := r.db.WithContext(ctx).
			Where("account_id IN ?", accountIDs[lo:hi]).
			Where("start_date <= ? AND end_date >= ?", end, start).
			Order("account_id ASC, start_date ASC").
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}
