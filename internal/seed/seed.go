package seed

import (
	"fmt"
	"log/slog"

	"vidtube/internal/middleware"
	"vidtube/internal/models"

	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	NumUsers      int
	VideosPerUser int
	ShouldClean   bool
	SkipBcrypt    bool
}

// Summary counts what a seeding run created.
type Summary struct {
	Users         int
	Videos        int
	Comments      int
	Playlists     int
	Subscriptions int
}

// Seed populates the database with users, videos, comments, playlists and subscriptions.
func Seed(db *gorm.DB, opts Options) (Summary, error) {
	var sum Summary
	if opts.NumUsers <= 0 {
		return sum, fmt.Errorf("NumUsers must be positive")
	}
	if opts.VideosPerUser < 0 {
		return sum, fmt.Errorf("VideosPerUser must not be negative")
	}

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return sum, fmt.Errorf("clear existing data: %w", err)
		}
	}

	factory, err := NewFactory(db, FactoryOptions{SkipBcrypt: opts.SkipBcrypt})
	if err != nil {
		return sum, err
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	sum.Users = len(users)

	var videos []*models.Video
	for _, owner := range users {
		for i := 0; i < opts.VideosPerUser; i++ {
			video, err := factory.CreateVideo(owner)
			if err != nil {
				return sum, fmt.Errorf("create video: %w", err)
			}
			videos = append(videos, video)
		}
	}
	sum.Videos = len(videos)

	for i, video := range videos {
		for j := 0; j < factory.rng.Intn(4); j++ {
			author := users[(i+j+1)%len(users)]
			if _, err := factory.CreateComment(author, video); err != nil {
				return sum, fmt.Errorf("create comment: %w", err)
			}
			sum.Comments++
		}
	}

	for i, user := range users {
		// Each user follows the next two channels; pairs are unique by construction.
		for step := 1; step <= 2 && step < len(users); step++ {
			if err := factory.Subscribe(user, users[(i+step)%len(users)]); err != nil {
				return sum, fmt.Errorf("create subscription: %w", err)
			}
			sum.Subscriptions++
		}

		if len(videos) == 0 {
			continue
		}
		picks := uniquePicks(factory, videos, 5)
		if _, err := factory.CreatePlaylist(user, picks); err != nil {
			return sum, fmt.Errorf("create playlist: %w", err)
		}
		sum.Playlists++
	}

	middleware.Logger.Info("database seeded",
		slog.Int("users", sum.Users),
		slog.Int("videos", sum.Videos),
		slog.Int("comments", sum.Comments),
		slog.Int("playlists", sum.Playlists),
		slog.Int("subscriptions", sum.Subscriptions),
	)
	return sum, nil
}

func uniquePicks(f *Factory, videos []*models.Video, max int) []*models.Video {
	n := f.rng.Intn(max) + 1
	if n > len(videos) {
		n = len(videos)
	}
	picks := make([]*models.Video, 0, n)
	for _, idx := range f.rng.Perm(len(videos))[:n] {
		picks = append(picks, videos[idx])
	}
	return picks
}

// clearData removes every row, children first.
func clearData(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE playlist_videos, playlists, subscriptions, watch_history_entries, comments, videos, users RESTART IDENTITY CASCADE`).Error
	}
	for _, model := range []any{
		&models.PlaylistVideo{}, &models.Playlist{}, &models.Subscription{},
		&models.WatchHistoryEntry{}, &models.Comment{}, &models.Video{}, &models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
