package repositories

import (
	"context"

	"gorm.io/gorm"
	"resellerdash/internal/models/db_models"
)

type AccountRepository interface {
	// ListHierarchy returns every live account with only the columns the
	// reseller tree needs.
	ListHierarchy(ctx context.Context) ([]db_models.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func (a *accountRepository) ListHierarchy(ctx context.Context) ([]db_models.Account, error) {
	var accounts []db_models.Account
	err := a.db.WithContext(ctx).
		Select("id", "role", "parent_id", "daily_rate").
		Order("id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
