package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	dbm "resellerdash/internal/models/db_models"
	"resellerdash/pkg/utils"
)

const (
	DefaultSettlementListLimit = 50
	MaxSettlementListLimit     = 500

	insertBatchSize = 200

	pgSerializationFailure = "40001"
)

type SettlementFilter struct {
	DistributorID *uuid.UUID
	IsPaid        *bool
	Limit         int
}

type SettlementRepository interface {
	// InsertPeriod stores all rows of one period in a single transaction. It
	// fails with utils.ErrAlreadyConfirmed when any distributor already has a
	// row for the period, and inserts nothing in that case.
	InsertPeriod(ctx context.Context, periodStart, periodEnd time.Time, rows []dbm.Settlement) error
	// MarkPaid flips exactly one unpaid row to paid.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (*dbm.Settlement, error)
	FindById(ctx context.Context, id uuid.UUID) (*dbm.Settlement, error)
	List(ctx context.Context, filter SettlementFilter) ([]dbm.Settlement, error)
	CountPeriod(ctx context.Context, periodStart, periodEnd time.Time) (int64, error)
}

type settlementRepository struct {
	db        *gorm.DB
	isolation sql.IsolationLevel
}

// NewSettlementRepository builds the ledger store. isolation applies to the
// confirm transaction; sql.LevelDefault leaves it to the driver.
func NewSettlementRepository(db *gorm.DB, isolation sql.IsolationLevel) SettlementRepository {
	return &settlementRepository{db: db, isolation: isolation}
}

func (r *settlementRepository) txOptions() []*sql.TxOptions {
	if r.isolation == sql.LevelDefault {
		return nil
	}
	return []*sql.TxOptions{{Isolation: r.isolation}}
}

func (r *settlementRepository) InsertPeriod(ctx context.Context, periodStart, periodEnd time.Time, rows []dbm.Settlement) error {
	distributorIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		distributorIDs = append(distributorIDs, row.DistributorID)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		q := tx.Model(&dbm.Settlement{}).
			Where("period_start = ? AND period_end = ?", periodStart, periodEnd)
		if len(distributorIDs) > 0 {
			q = q.Where("distributor_id IN ?", distributorIDs)
		}
		if err := q.Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return utils.ErrAlreadyConfirmed
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	}, r.txOptions()...)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, utils.ErrAlreadyConfirmed), errors.Is(err, gorm.ErrDuplicatedKey):
		return utils.ErrAlreadyConfirmed
	case isSerializationFailure(err):
		// A concurrent run touched the same period. Only report a duplicate if
		// the other run actually committed it.
		if n, cerr := r.CountPeriod(ctx, periodStart, periodEnd); cerr == nil && n > 0 {
			return utils.ErrAlreadyConfirmed
		}
		return fmt.Errorf("%w: confirm transaction: %v", utils.ErrStorageFailure, err)
	default:
		return fmt.Errorf("%w: confirm transaction: %v", utils.ErrStorageFailure, err)
	}
}

func (r *settlementRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (*dbm.Settlement, error) {
	res := r.db.WithContext(ctx).
		Model(&dbm.Settlement{}).
		Where("id = ? AND is_paid = ?", id, false).
		Updates(map[string]interface{}{
			"is_paid": true,
			"paid_at": paidAt,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: mark paid: %v", utils.ErrStorageFailure, res.Error)
	}

	settlement, err := r.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, utils.ErrSettlementNotFound
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrAlreadyPaid
	}
	return settlement, nil
}

func (r *settlementRepository) FindById(ctx context.Context, id uuid.UUID) (*dbm.Settlement, error) {
	var settlement dbm.Settlement
	err := r.db.WithContext(ctx).First(&settlement, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: find settlement: %v", utils.ErrStorageFailure, err)
	}
	return &settlement, nil
}

func (r *settlementRepository) List(ctx context.Context, filter SettlementFilter) ([]dbm.Settlement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultSettlementListLimit
	}
	if limit > MaxSettlementListLimit {
		limit = MaxSettlementListLimit
	}

	q := r.db.WithContext(ctx).Model(&dbm.Settlement{})
	if filter.DistributorID != nil {
		q = q.Where("distributor_id = ?", *filter.DistributorID)
	}
	if filter.IsPaid != nil {
		q = q.Where("is_paid = ?", *filter.IsPaid)
	}

	var rows []dbm.Settlement
	err := q.Order("created_at DESC").
		Order("period_start DESC").
		Order("distributor_id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list settlements: %v", utils.ErrStorageFailure, err)
	}
	return rows, nil
}

func (r *settlementRepository) CountPeriod(ctx context.Context, periodStart, periodEnd time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Settlement{}).
		Where("period_start = ? AND period_end = ?", periodStart, periodEnd).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("%w: count period: %v", utils.ErrStorageFailure, err)
	}
	return n, nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure
}
