package database

import (
	"context"
	"path/filepath"
	"testing"

	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestDialector(t *testing.T) {
	pg := Dialector(&config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432"})
	_, ok := pg.(*postgres.Dialector)
	assert.True(t, ok)

	lite := Dialector(&config.Config{DBDriver: "sqlite", DBPath: ":memory:"})
	_, ok = lite.(*sqlite.Dialector)
	assert.True(t, ok)
}

func TestConnect_SQLiteMigrates(t *testing.T) {
	cfg := &config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "yatube.db"),
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, Ping(context.Background(), db))

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Follow{}, "idx_follow_pair"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestMigrate_FollowPairIsUnique(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, db.Create(&models.Follow{UserID: 1, AuthorID: 2}).Error)
	assert.Error(t, db.Create(&models.Follow{UserID: 1, AuthorID: 2}).Error)
	assert.NoError(t, db.Create(&models.Follow{UserID: 2, AuthorID: 1}).Error)
}
