// Package seed provides helpers to create demo data for the application database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"vidtube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// FactoryOptions tune how entities are generated.
type FactoryOptions struct {
	// SkipBcrypt stores a cheap hash cost instead of the default, for fast test runs.
	SkipBcrypt bool
	// MaxDays spreads creation timestamps over this many past days.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts FactoryOptions
	rng  *rand.Rand
	hash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts FactoryOptions) (*Factory, error) {
	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Factory{db: db, opts: opts, rng: rng, hash: string(hash)}, nil
}

// seedUsername builds a name that passes username validation and fits the 30 character column.
func seedUsername(first, last string, n int) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, strings.ToLower(s))
	}
	base := clean(first) + "_" + clean(last)
	if len(base) > 25 {
		base = base[:25]
	}
	return strings.Trim(base, "_") + strconv.Itoa(n)
}

func (f *Factory) pastTime() time.Time {
	return time.Now().Add(-time.Duration(f.rng.Intn(f.opts.MaxDays*24*60)) * time.Minute)
}

// CreateUser constructs and persists a sample user. Override functions may modify it before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	username := seedUsername(first, last, gofakeit.Number(100, 999))
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Fullname: first + " " + last,
		Password: f.hash,
		Avatar:   models.MediaAsset{URL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username)},
	}
	if f.rng.Intn(2) == 0 {
		user.CoverImage = models.MediaAsset{URL: fmt.Sprintf("https://picsum.photos/seed/cover-%s/1200/300", username)}
	}

	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateVideo constructs and persists a sample video owned by owner.
// Seeded assets have no storage ID, so deleting them never touches the media host.
func (f *Factory) CreateVideo(owner *models.User, overrides ...func(*models.Video)) (*models.Video, error) {
	slug := gofakeit.UUID()
	created := f.pastTime()
	video := &models.Video{
		Title:       strings.TrimSuffix(gofakeit.Sentence(f.rng.Intn(5)+2), "."),
		Description: gofakeit.Paragraph(1, 3, 12, " "),
		VideoFile:   models.MediaAsset{URL: fmt.Sprintf("https://samples.vidtube.local/%s.mp4", slug)},
		Thumbnail:   models.MediaAsset{URL: fmt.Sprintf("https://picsum.photos/seed/%s/640/360", slug)},
		Duration:    float64(f.rng.Intn(60000)) / 100,
		Views:       int64(f.rng.Intn(50000)),
		IsPublic:    f.rng.Intn(10) > 0,
		OwnerID:     owner.ID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	for _, override := range overrides {
		override(video)
	}
	if err := f.db.Create(video).Error; err != nil {
		return nil, err
	}
	return video, nil
}

// CreateComment persists a sample comment by user on video.
func (f *Factory) CreateComment(user *models.User, video *models.Video, overrides ...func(*models.Comment)) (*models.Comment, error) {
	created := video.CreatedAt.Add(time.Duration(f.rng.Intn(72*60)) * time.Minute)
	comment := &models.Comment{
		Content:   gofakeit.Sentence(f.rng.Intn(12) + 3),
		OwnerID:   user.ID,
		VideoID:   video.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}

	for _, override := range overrides {
		override(comment)
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreatePlaylist persists a playlist owned by owner containing videos in the given order.
func (f *Factory) CreatePlaylist(owner *models.User, videos []*models.Video) (*models.Playlist, error) {
	playlist := &models.Playlist{
		Name:        strings.TrimSuffix(gofakeit.HipsterSentence(3), "."),
		Description: gofakeit.Sentence(8),
		OwnerID:     owner.ID,
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(playlist).Error; err != nil {
			return err
		}
		for _, v := range videos {
			if err := tx.Create(&models.PlaylistVideo{PlaylistID: playlist.ID, VideoID: v.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return playlist, nil
}

// Subscribe persists a subscription of subscriber to channel.
func (f *Factory) Subscribe(subscriber, channel *models.User) error {
	return f.db.Create(&models.Subscription{SubscriberID: subscriber.ID, ChannelID: channel.ID}).Error
}
