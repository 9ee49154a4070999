package repository

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestFollowRepository_CreateUsesOnConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "follows"`) + `.*` +
		regexp.QuoteMeta(`ON CONFLICT ("user_id","author_id") DO NOTHING`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, created, "no returned row means the edge already existed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_Idempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	created, err := repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	exists, err := repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.Exists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, exists, "edges are directed")

	removed, err := repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollowRepository_ConcurrentCreate(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, a.ID, b.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", a.ID, b.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFollowRepository_Lists(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	fan1 := testutil.CreateUser(t, db, "fan1")
	fan2 := testutil.CreateUser(t, db, "fan2")
	for _, fan := range []*models.User{fan1, fan2} {
		_, err := repo.Create(ctx, fan.ID, author.ID)
		require.NoError(t, err)
	}

	followers, err := repo.FollowersOf(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, "fan1", followers[0].Username)
	assert.Equal(t, "fan2", followers[1].Username)

	following, err := repo.FollowingOf(ctx, fan1.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "author", following[0].Username)

	n, err := repo.CountFollowers(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = repo.CountFollowing(ctx, author.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
