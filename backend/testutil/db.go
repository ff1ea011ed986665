// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"testing"

	"classmarket/backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with the full schema and
// seeded lookup tables. A single connection keeps the memory database alive
// for the life of the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	require.NoError(t, models.SeedLookups(db))
	return db
}

// CreateUser inserts a user with a unique email derived from name.
func CreateUser(t *testing.T, db *gorm.DB, name string, creator bool) models.User {
	t.Helper()
	user := models.User{
		Name:      name,
		NickName:  name,
		Email:     name + "@example.com",
		IsCreator: creator,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}
