package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbm "resellerdash/internal/models/db_models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&dbm.Account{},
		&dbm.SubscriptionRecord{},
		&dbm.Settlement{},
		&dbm.AuditLog{},
	))
	return db
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedAccount(t *testing.T, db *gorm.DB, role dbm.AccountRole, parent *uuid.UUID, rate int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	acc := dbm.Account{
		BaseModel: dbm.BaseModel{ID: id},
		Name:      string(role),
		Email:     id.String() + "@example.test",
		Role:      role,
		ParentID:  parent,
		DailyRate: rate,
	}
	require.NoError(t, db.Create(&acc).Error)
	return id
}

func seedSubscription(t *testing.T, db *gorm.DB, accountID uuid.UUID, svc dbm.ServiceType, start, end string, free bool) {
	t.Helper()
	rec := dbm.SubscriptionRecord{
		AccountID:   accountID,
		ServiceType: svc,
		StartDate:   day(start),
		EndDate:     day(end),
		Status:      dbm.SubStatusActive,
		IsFreeTest:  free,
	}
	require.NoError(t, db.Create(&rec).Error)
}

// resellerFixture is MASTER -> D -> {U1, A -> U2} with D at 100000 per day.
type resellerFixture struct {
	master, distributor, directUser, agency, agencyUser uuid.UUID
}

func seedResellerTree(t *testing.T, db *gorm.DB) resellerFixture {
	t.Helper()
	var f resellerFixture
	f.master = seedAccount(t, db, dbm.RoleMaster, nil, 0)
	f.distributor = seedAccount(t, db, dbm.RoleDistributor, &f.master, 100000)
	f.directUser = seedAccount(t, db, dbm.RoleUser, &f.distributor, 0)
	f.agency = seedAccount(t, db, dbm.RoleAgency, &f.distributor, 0)
	f.agencyUser = seedAccount(t, db, dbm.RoleUser, &f.agency, 0)

	seedSubscription(t, db, f.directUser, dbm.ServiceStock, "2024-01-03", "2024-01-10", false)
	seedSubscription(t, db, f.agencyUser, dbm.ServiceCoin, "2023-12-25", "2024-01-31", true)
	return f
}
