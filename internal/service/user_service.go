package service

import (
	"context"
	"log/slog"
	"strings"

	"vidtube/internal/auth"
	"vidtube/internal/events"
	"vidtube/internal/media"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/repository"
	"vidtube/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo    repository.UserRepository
	historyRepo repository.WatchHistoryRepository
	store       media.Store
	tokens      *auth.TokenIssuer
	revoker     *auth.Revoker
	publisher   events.Publisher
	hashCost    int
}

type RegisterInput struct {
	Username   string
	Email      string
	Fullname   string
	Password   string
	Avatar     *FileUpload
	CoverImage *FileUpload
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type ChangePasswordInput struct {
	UserID      uint
	OldPassword string
	NewPassword string
}

func NewUserService(
	userRepo repository.UserRepository,
	historyRepo repository.WatchHistoryRepository,
	store media.Store,
	tokens *auth.TokenIssuer,
	revoker *auth.Revoker,
	publisher events.Publisher,
) *UserService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &UserService{
		userRepo:    userRepo,
		historyRepo: historyRepo,
		store:       store,
		tokens:      tokens,
		revoker:     revoker,
		publisher:   publisher,
		hashCost:    bcrypt.DefaultCost,
	}
}

// Register uploads the profile images and creates the account. Uploaded images are
// removed again if the account cannot be stored.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	fullname := strings.TrimSpace(in.Fullname)
	if username == "" || email == "" || fullname == "" || strings.TrimSpace(in.Password) == "" {
		return nil, models.NewValidationError("Please fill up all the required fields")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError("Invalid username", err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError("Invalid email", err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError("Invalid password", err.Error())
	}
	username = validation.NormalizeUsername(username)
	email = validation.NormalizeEmail(email)

	existing, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User with username or email already exists")
	}
	if in.Avatar == nil {
		return nil, models.NewValidationError("Avatar file is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Fullname: fullname,
		Password: string(hash),
	}

	err = newSaga("register").
		step("upload_avatar", func(ctx context.Context) error {
			asset, _, err := uploadAsset(ctx, s.store, in.Avatar, media.ResourceImage)
			if err != nil {
				return models.NewValidationError("Avatar upload failure")
			}
			user.Avatar = asset
			return nil
		}, func(ctx context.Context) error {
			return deleteAsset(ctx, s.store, user.Avatar, media.ResourceImage)
		}).
		step("upload_cover_image", func(ctx context.Context) error {
			if in.CoverImage == nil {
				return nil
			}
			asset, _, err := uploadAsset(ctx, s.store, in.CoverImage, media.ResourceImage)
			if err != nil {
				// A cover image is optional; the account is created without one.
				middleware.Logger.WarnContext(ctx, "cover image upload failed",
					slog.String("error", err.Error()))
				return nil
			}
			user.CoverImage = asset
			return nil
		}, func(ctx context.Context) error {
			return deleteAsset(ctx, s.store, user.CoverImage, media.ResourceImage)
		}).
		step("create_user", func(ctx context.Context) error {
			if err := s.userRepo.Create(ctx, user); err != nil {
				if models.IsCode(err, models.CodeConflict) {
					return err
				}
				return models.NewInternalMessage("User registration failure", err)
			}
			return nil
		}, nil).
		run(ctx)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.UserRegistered, events.UserRegisteredPayload{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	return user, nil
}

// Login verifies the credentials and issues a new session, replacing any previous refresh token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.User, models.Session, error) {
	username := validation.NormalizeUsername(in.Username)
	email := validation.NormalizeEmail(in.Email)
	if username == "" && email == "" {
		return nil, models.Session{}, models.NewValidationError("Username or email is required")
	}
	if in.Password == "" {
		return nil, models.Session{}, models.NewValidationError("Password is required")
	}

	user, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, models.Session{}, err
	}
	if user == nil {
		return nil, models.Session{}, models.NewNotFoundMessage("User not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.Session{}, models.NewValidationError("Incorrect password")
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, models.Session{}, err
	}
	user.Password = ""
	user.RefreshToken = nil
	return user, session, nil
}

// Refresh rotates the session. The presented token must be the one currently stored for the user.
func (s *UserService) Refresh(ctx context.Context, raw string) (models.Session, error) {
	if raw == "" {
		return models.Session{}, models.NewUnauthorizedError("Unauthorized request")
	}
	claims, err := s.tokens.ParseRefresh(raw)
	if err != nil {
		return models.Session{}, models.NewUnauthorizedError("Invalid refresh token")
	}
	userID, err := auth.SubjectID(claims.RegisteredClaims)
	if err != nil {
		return models.Session{}, models.NewUnauthorizedError("Invalid refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.Session{}, models.NewUnauthorizedError("Invalid refresh token")
		}
		return models.Session{}, err
	}
	if user.RefreshToken == nil || *user.RefreshToken != raw {
		return models.Session{}, models.NewUnauthorizedError("Refresh token expired or used")
	}

	session, err := s.tokens.IssuePair(user)
	if err != nil {
		return models.Session{}, models.NewInternalError(err)
	}
	rotated, err := s.userRepo.RotateRefreshToken(ctx, user.ID, raw, session.RefreshToken)
	if err != nil {
		return models.Session{}, err
	}
	if !rotated {
		return models.Session{}, models.NewUnauthorizedError("Refresh token expired or used")
	}
	return session, nil
}

func (s *UserService) startSession(ctx context.Context, user *models.User) (models.Session, error) {
	session, err := s.tokens.IssuePair(user)
	if err != nil {
		return models.Session{}, models.NewInternalError(err)
	}
	if err := s.userRepo.SetRefreshToken(ctx, user.ID, &session.RefreshToken); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Logout forgets the stored refresh token and revokes the access token that made the request.
func (s *UserService) Logout(ctx context.Context, userID uint, access *auth.AccessClaims) error {
	if err := s.userRepo.SetRefreshToken(ctx, userID, nil); err != nil {
		return err
	}
	if access == nil || access.ID == "" || access.ExpiresAt == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, access.ID, access.ExpiresAt.Time); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to revoke access token",
			slog.String("jti", access.ID), slog.String("error", err.Error()))
	}
	return nil
}

// Authenticate resolves a raw access token to its user. All failures are UNAUTHORIZED.
func (s *UserService) Authenticate(ctx context.Context, raw string) (*models.User, *auth.AccessClaims, error) {
	if raw == "" {
		return nil, nil, models.NewUnauthorizedError("Unauthorized request")
	}
	claims, err := s.tokens.ParseAccess(raw)
	if err != nil {
		return nil, nil, models.NewUnauthorizedError("Invalid access token")
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "token revocation check failed",
			slog.String("error", err.Error()))
	}
	if revoked {
		return nil, nil, models.NewUnauthorizedError("Access token has been revoked")
	}

	userID, err := auth.SubjectID(claims.RegisteredClaims)
	if err != nil {
		return nil, nil, models.NewUnauthorizedError("Invalid access token")
	}
	user, err := s.userRepo.GetPublicByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, nil, models.NewUnauthorizedError("Invalid access token")
		}
		return nil, nil, err
	}
	return user, claims, nil
}

func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if in.OldPassword == "" || in.NewPassword == "" {
		return models.NewValidationError("Please provide both old and new password")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError("Invalid password", err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.OldPassword)); err != nil {
		return models.NewValidationError("Incorrect password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.hashCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.UpdateFields(ctx, in.UserID, map[string]interface{}{"password": string(hash)})
}

func (s *UserService) Current(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetPublicByID(ctx, userID)
}

func (s *UserService) UpdateAccount(ctx context.Context, userID uint, fullname string) (*models.User, error) {
	fullname = strings.TrimSpace(fullname)
	if fullname == "" {
		return nil, models.NewValidationError("Please provide fullname")
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"fullname": fullname}); err != nil {
		return nil, err
	}
	return s.userRepo.GetPublicByID(ctx, userID)
}

// profileImage describes one replaceable image slot on the user row.
type profileImage struct {
	workflow      string
	column        string
	current       func(*models.User) models.MediaAsset
	missingMsg    string
	deleteFailMsg string
	uploadFailMsg string
}

var (
	avatarImage = profileImage{
		workflow:      "replace_avatar",
		column:        "avatar",
		current:       func(u *models.User) models.MediaAsset { return u.Avatar },
		missingMsg:    "Avatar is required",
		deleteFailMsg: "Previous avatar deletion failure. Please try again",
		uploadFailMsg: "Avatar upload failure",
	}
	coverImage = profileImage{
		workflow:      "replace_cover_image",
		column:        "cover_image",
		current:       func(u *models.User) models.MediaAsset { return u.CoverImage },
		missingMsg:    "Cover image is required",
		deleteFailMsg: "Previous cover image deletion failure. Please try again",
		uploadFailMsg: "Cover image upload failure",
	}
)

func (s *UserService) ReplaceAvatar(ctx context.Context, userID uint, file *FileUpload) (models.MediaAsset, error) {
	return s.replaceImage(ctx, userID, file, avatarImage)
}

func (s *UserService) ReplaceCoverImage(ctx context.Context, userID uint, file *FileUpload) (models.MediaAsset, error) {
	return s.replaceImage(ctx, userID, file, coverImage)
}

// replaceImage removes the previous image, uploads the new one and stores its reference.
// The new upload is deleted again if the reference cannot be stored.
func (s *UserService) replaceImage(ctx context.Context, userID uint, file *FileUpload, img profileImage) (models.MediaAsset, error) {
	if file == nil {
		return models.MediaAsset{}, models.NewValidationError(img.missingMsg)
	}
	// The cached public view does not carry storage IDs.
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return models.MediaAsset{}, err
	}
	previous := img.current(user)

	var next models.MediaAsset
	err = newSaga(img.workflow).
		step("delete_previous", func(ctx context.Context) error {
			if err := deleteAsset(ctx, s.store, previous, media.ResourceImage); err != nil {
				return models.NewValidationError(img.deleteFailMsg)
			}
			return nil
		}, nil).
		step("upload", func(ctx context.Context) error {
			asset, _, err := uploadAsset(ctx, s.store, file, media.ResourceImage)
			if err != nil {
				return models.NewValidationError(img.uploadFailMsg)
			}
			next = asset
			return nil
		}, func(ctx context.Context) error {
			return deleteAsset(ctx, s.store, next, media.ResourceImage)
		}).
		step("persist", func(ctx context.Context) error {
			return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
				img.column + "_url":        next.URL,
				img.column + "_storage_id": next.StorageID,
			})
		}, nil).
		run(ctx)
	if err != nil {
		return models.MediaAsset{}, err
	}
	return next, nil
}

// Channel returns the public profile of username together with its subscription counters.
func (s *UserService) Channel(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error) {
	username = validation.NormalizeUsername(username)
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	return s.userRepo.ChannelProfile(ctx, username, viewerID)
}

func (s *UserService) WatchHistory(ctx context.Context, userID uint) ([]models.Video, error) {
	videos, err := s.historyRepo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}

// IsAdmin reports whether userID carries the admin flag.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetPublicByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

// SetAdmin grants or revokes the admin flag on username.
func (s *UserService) SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error) {
	username = validation.NormalizeUsername(username)
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	user, err := s.userRepo.SetAdmin(ctx, username, isAdmin)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	middleware.Logger.InfoContext(ctx, "admin flag changed",
		slog.String("username", user.Username), slog.Bool("is_admin", isAdmin))
	return user, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}
