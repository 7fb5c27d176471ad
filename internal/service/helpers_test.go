package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vidtube/internal/auth"
	"vidtube/internal/config"
	"vidtube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation, "")
}

func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeUnauthorized, "")
}

func testTokens() *auth.TokenIssuer {
	return auth.NewTokenIssuer(&config.Config{
		AccessTokenSecret:  "service-access-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenSecret: "service-refresh-secret",
		RefreshTokenExpiry: 240 * time.Hour,
		TokenIssuer:        "vidtube-api",
		TokenAudience:      "vidtube-client",
	})
}

// stagedFile writes a small file standing in for a staged multipart upload.
func stagedFile(t *testing.T, name, contentType string) *FileUpload {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0o600))
	return &FileUpload{Path: path, ContentType: contentType}
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Fullname: "User " + username,
		Password: "not-a-hash",
		Avatar:   models.MediaAsset{URL: "https://media.test/images/" + username, StorageID: "images/" + username},
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createVideo(t *testing.T, db *gorm.DB, owner *models.User, title string, public bool) *models.Video {
	t.Helper()
	v := &models.Video{
		Title:     title,
		OwnerID:   owner.ID,
		IsPublic:  public,
		VideoFile: models.MediaAsset{URL: "https://media.test/videos/" + title, StorageID: "videos/" + title},
		Thumbnail: models.MediaAsset{URL: "https://media.test/images/" + title, StorageID: "images/" + title},
	}
	require.NoError(t, db.Create(v).Error)
	return v
}
