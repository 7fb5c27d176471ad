package repository

import (
	"testing"
	"time"

	"vidtube/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
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

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Video{},
		&models.Comment{},
		&models.Playlist{},
		&models.PlaylistVideo{},
		&models.Subscription{},
		&models.WatchHistoryEntry{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Fullname: "User " + username,
		Password: "hash",
		Avatar:   models.MediaAsset{URL: "https://cdn.example.com/" + username + ".png", StorageID: "images/" + username + ".png"},
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedVideo(t *testing.T, db *gorm.DB, owner *models.User, title string, public bool, createdAt time.Time) *models.Video {
	t.Helper()
	v := &models.Video{
		Title:     title,
		OwnerID:   owner.ID,
		VideoFile: models.MediaAsset{URL: "https://cdn.example.com/v.mp4", StorageID: "videos/" + title + ".mp4"},
		Thumbnail: models.MediaAsset{URL: "https://cdn.example.com/t.png", StorageID: "images/" + title + ".png"},
		IsPublic:  public,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(v).Error)
	return v
}
