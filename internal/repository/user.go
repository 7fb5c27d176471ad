// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"vidtube/internal/cache"
	"vidtube/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// GetByID returns the full row, including the password hash and refresh token.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetPublicByID returns the user without credentials. Results are cached.
	GetPublicByID(ctx context.Context, id uint) (*models.User, error)
	// FindByUsernameOrEmail returns nil, nil when no user matches either value.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// UpdateFields writes only the given columns.
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SetRefreshToken(ctx context.Context, id uint, token *string) error
	// RotateRefreshToken replaces current with next only if current is still the stored token.
	// It reports false when another rotation or a logout got there first.
	RotateRefreshToken(ctx context.Context, id uint, current, next string) (bool, error)
	ChannelProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error)
	SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
}

type userRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewUserRepository returns a new UserRepository implementation. rdb may be nil.
func NewUserRepository(db *gorm.DB, rdb *redis.Client) UserRepository {
	return &userRepository{db: db, rdb: rdb}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetPublicByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, r.rdb, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).Omit("password", "refresh_token").First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ? OR email = ?", username, email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User with username or email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{ID: id}).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("User with username or email already exists")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, r.rdb, id)
	return nil
}

func (r *userRepository) SetRefreshToken(ctx context.Context, id uint, token *string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("refresh_token", token)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) RotateRefreshToken(ctx context.Context, id uint, current, next string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", id, current).
		UpdateColumn("refresh_token", next)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

type channelRow struct {
	ID              uint
	Username        string
	Fullname        string
	Email           string
	AvatarURL       string
	CoverImageURL   string
	SubscriberCount int64
	SubscribedCount int64
	IsSubscribed    bool
}

func (r *userRepository) ChannelProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error) {
	var rows []channelRow
	err := r.db.WithContext(ctx).Raw(`
SELECT u.id, u.username, u.fullname, u.email, u.avatar_url, u.cover_image_url,
	(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscriber_count,
	(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_count,
	EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?) AS is_subscribed
FROM users u
WHERE u.username = ?
LIMIT 1`, viewerID, username).Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundMessage("Channel info not found")
	}

	row := rows[0]
	return &models.ChannelProfile{
		ID:              row.ID,
		Username:        row.Username,
		Fullname:        row.Fullname,
		Email:           row.Email,
		Avatar:          models.AssetURL{URL: row.AvatarURL},
		CoverImage:      models.AssetURL{URL: row.CoverImageURL},
		SubscriberCount: row.SubscriberCount,
		SubscribedCount: row.SubscribedCount,
		IsSubscribed:    row.IsSubscribed,
	}, nil
}

func (r *userRepository) SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", username)
	}
	if err := r.db.WithContext(ctx).Model(&user).Update("is_admin", isAdmin).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, r.rdb, user.ID)
	return &user, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Omit("password", "refresh_token").Where("is_admin = ?", true).Order("id").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
