package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vidtube/internal/events"
	"vidtube/internal/featureflags"
	"vidtube/internal/models"
	"vidtube/internal/repository"
	"vidtube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// videoRepoStub overrides selected methods of a real repository.
type videoRepoStub struct {
	repository.VideoRepository
	createFn       func(context.Context, *models.Video) error
	updateFieldsFn func(context.Context, uint, map[string]interface{}) error
}

func (s *videoRepoStub) Create(ctx context.Context, v *models.Video) error {
	if s.createFn != nil {
		return s.createFn(ctx, v)
	}
	return s.VideoRepository.Create(ctx, v)
}

func (s *videoRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if s.updateFieldsFn != nil {
		return s.updateFieldsFn(ctx, id, fields)
	}
	return s.VideoRepository.UpdateFields(ctx, id, fields)
}

type videoFixture struct {
	db        *gorm.DB
	repo      *videoRepoStub
	store     *testutil.FakeMediaStore
	publisher *testutil.RecordingPublisher
	svc       *VideoService
	owner     *models.User
	viewer    *models.User
}

func newVideoFixture(t *testing.T, flags string) *videoFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &videoFixture{
		db:        db,
		repo:      &videoRepoStub{VideoRepository: repository.NewVideoRepository(db)},
		store:     testutil.NewFakeMediaStore(),
		publisher: &testutil.RecordingPublisher{},
		owner:     createUser(t, db, "owner"),
		viewer:    createUser(t, db, "viewer"),
	}
	f.svc = NewVideoService(f.repo, repository.NewWatchHistoryRepository(db), f.store, f.publisher, featureflags.NewManager(flags))
	return f
}

func (f *videoFixture) publish(t *testing.T, title, visibility string) *models.Video {
	t.Helper()
	v, err := f.svc.Publish(context.Background(), PublishVideoInput{
		OwnerID:    f.owner.ID,
		Title:      title,
		Visibility: visibility,
		VideoFile:  stagedFile(t, "clip.mp4", "video/mp4"),
		Thumbnail:  stagedFile(t, "thumb.png", "image/png"),
	})
	require.NoError(t, err)
	return v
}

func TestVideoService_Publish_Validation(t *testing.T) {
	f := newVideoFixture(t, "")
	ctx := context.Background()
	video := stagedFile(t, "clip.mp4", "video/mp4")
	thumb := stagedFile(t, "thumb.png", "image/png")

	tests := []struct {
		name string
		in   PublishVideoInput
		msg  string
	}{
		{"blank title", PublishVideoInput{Title: "  ", VideoFile: video, Thumbnail: thumb}, "Title is required"},
		{"bad visibility", PublishVideoInput{Title: "t", Visibility: "unlisted", VideoFile: video, Thumbnail: thumb}, "Invalid visibility option. Available options: public, private"},
		{"missing thumbnail", PublishVideoInput{Title: "t", VideoFile: video}, "Video and thumbnail are required"},
		{"video is image", PublishVideoInput{Title: "t", VideoFile: thumb, Thumbnail: thumb}, "Video file is not a video"},
		{"thumbnail is video", PublishVideoInput{Title: "t", VideoFile: video, Thumbnail: video}, "Thumbnail file is not an image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Publish(ctx, tt.in)
			assertAppError(t, err, models.CodeValidation, tt.msg)
		})
	}
	assert.Zero(t, f.store.Count())
}

func TestVideoService_Publish_RoundsDurationAndEmits(t *testing.T) {
	f := newVideoFixture(t, "")
	f.store.Duration = 12.3456

	v := f.publish(t, "  First  ", "private")
	assert.Equal(t, "First", v.Title)
	assert.Equal(t, 12.35, v.Duration)
	assert.False(t, v.IsPublic)
	assert.Equal(t, f.owner.ID, v.OwnerID)
	require.NotNil(t, v.Owner)
	assert.Equal(t, "owner", v.Owner.Username)
	assert.Equal(t, []string{events.VideoPublished}, f.publisher.Types())
}

func TestVideoService_Publish_Compensation(t *testing.T) {
	t.Run("thumbnail failure removes the video upload", func(t *testing.T) {
		f := newVideoFixture(t, "")
		f.store.FailUpload["image"] = true

		_, err := f.svc.Publish(context.Background(), PublishVideoInput{
			OwnerID: f.owner.ID, Title: "t",
			VideoFile: stagedFile(t, "clip.mp4", "video/mp4"),
			Thumbnail: stagedFile(t, "thumb.png", "image/png"),
		})
		assertAppError(t, err, models.CodeInternal, "Thumbnail upload failed")
		assert.Zero(t, f.store.Count())
	})

	t.Run("persist failure removes both uploads", func(t *testing.T) {
		f := newVideoFixture(t, "")
		f.repo.createFn = func(context.Context, *models.Video) error {
			return models.NewInternalMessage("Video creation failed", errors.New("db down"))
		}

		_, err := f.svc.Publish(context.Background(), PublishVideoInput{
			OwnerID: f.owner.ID, Title: "t",
			VideoFile: stagedFile(t, "clip.mp4", "video/mp4"),
			Thumbnail: stagedFile(t, "thumb.png", "image/png"),
		})
		assertAppError(t, err, models.CodeInternal, "Video creation failed")
		assert.Zero(t, f.store.Count())
		assert.Len(t, f.store.Deleted(), 2)
		assert.Empty(t, f.publisher.Types())
	})
}

func TestVideoService_Get_PrivateHiddenFromOthers(t *testing.T) {
	f := newVideoFixture(t, "")
	ctx := context.Background()
	v := f.publish(t, "secret", "private")

	_, err := f.svc.Get(ctx, v.ID, f.viewer.ID)
	assertAppError(t, err, models.CodeNotFound, "")

	got, err := f.svc.Get(ctx, v.ID, f.owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)
}

func TestVideoService_Get_CountsViewsAndRecordsHistory(t *testing.T) {
	f := newVideoFixture(t, "watch_history=on")
	ctx := context.Background()
	first := f.publish(t, "first", "public")
	second := f.publish(t, "second", "public")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	f.svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, id := range []uint{first.ID, second.ID, first.ID} {
		_, err := f.svc.Get(ctx, id, f.viewer.ID)
		require.NoError(t, err)
	}

	var stored models.Video
	require.NoError(t, f.db.First(&stored, first.ID).Error)
	assert.EqualValues(t, 2, stored.Views)

	history, err := repository.NewWatchHistoryRepository(f.db).List(ctx, f.viewer.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID, "re-watched video moves to the front")
	assert.Equal(t, second.ID, history[1].ID)
}

func TestVideoService_Get_HistoryFlagOff(t *testing.T) {
	f := newVideoFixture(t, "watch_history=off")
	v := f.publish(t, "clip", "public")

	_, err := f.svc.Get(context.Background(), v.ID, f.viewer.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.WatchHistoryEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestVideoService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("visibility only", func(t *testing.T) {
		f := newVideoFixture(t, "")
		v := f.publish(t, "clip", "public")
		private := "private"

		updated, err := f.svc.Update(ctx, UpdateVideoInput{UserID: f.owner.ID, VideoID: v.ID, Visibility: &private})
		require.NoError(t, err)
		assert.False(t, updated.IsPublic)
		assert.Equal(t, "clip", updated.Title)
	})

	t.Run("nothing to update", func(t *testing.T) {
		f := newVideoFixture(t, "")
		v := f.publish(t, "clip", "public")
		_, err := f.svc.Update(ctx, UpdateVideoInput{UserID: f.owner.ID, VideoID: v.ID})
		assertValidationError(t, err)
	})

	t.Run("not the owner", func(t *testing.T) {
		f := newVideoFixture(t, "")
		v := f.publish(t, "clip", "public")
		title := "stolen"
		_, err := f.svc.Update(ctx, UpdateVideoInput{UserID: f.viewer.ID, VideoID: v.ID, Title: &title})
		assertAppError(t, err, models.CodeForbidden, "")
	})

	t.Run("blank title", func(t *testing.T) {
		f := newVideoFixture(t, "")
		v := f.publish(t, "clip", "public")
		blank := " "
		_, err := f.svc.Update(ctx, UpdateVideoInput{UserID: f.owner.ID, VideoID: v.ID, Title: &blank})
		assertValidationError(t, err)
	})

	t.Run("thumbnail replaced and old removed", func(t *testing.T) {
		f := newVideoFixture(t, "")
		v := f.publish(t, "clip", "public")
		old := v.Thumbnail.StorageID

		updated, err := f.svc.Update(ctx, UpdateVideoInput{UserID: f.owner.ID, VideoID: v.ID, Thumbnail: stagedFile(t, "new.png", "image/png")})
		require.NoError(t, err)
		assert.NotEqual(t, old, updated.Thumbnail.StorageID)
		assert.False(t, f.store.Has(old))
		assert.True(t, f.store.Has(updated.Thumbnail.StorageID))
	})

	t.Run("old thumbnail deletion failure is tolerated", func(t *testing.T) {
		f := newVideoFixture(t, "")
		v := f.publish(t, "clip", "public")
		f.store.FailDelete["image"] = true

		updated, err := f.svc.Update(ctx, UpdateVideoInput{UserID: f.owner.ID, VideoID: v.ID, Thumbnail: stagedFile(t, "new.png", "image/png")})
		require.NoError(t, err)
		assert.True(t, f.store.Has(v.Thumbnail.StorageID))
		assert.True(t, f.store.Has(updated.Thumbnail.StorageID))
	})

	t.Run("update failure removes the new thumbnail", func(t *testing.T) {
		f := newVideoFixture(t, "")
		v := f.publish(t, "clip", "public")
		f.repo.updateFieldsFn = func(context.Context, uint, map[string]interface{}) error {
			return models.NewInternalError(errors.New("db down"))
		}

		_, err := f.svc.Update(ctx, UpdateVideoInput{UserID: f.owner.ID, VideoID: v.ID, Thumbnail: stagedFile(t, "new.png", "image/png")})
		assertAppError(t, err, models.CodeInternal, "")
		assert.Equal(t, 2, f.store.Count())
		assert.True(t, f.store.Has(v.Thumbnail.StorageID))
	})
}

func TestVideoService_Delete_RemovesAssetsBeforeRow(t *testing.T) {
	f := newVideoFixture(t, "")
	ctx := context.Background()
	v := f.publish(t, "clip", "public")
	require.NoError(t, f.db.Create(&models.Comment{Content: "hi", OwnerID: f.viewer.ID, VideoID: v.ID}).Error)

	err := f.svc.Delete(ctx, f.viewer.ID, v.ID)
	assertAppError(t, err, models.CodeForbidden, "")

	f.store.FailDelete["image"] = true
	err = f.svc.Delete(ctx, f.owner.ID, v.ID)
	assertAppError(t, err, models.CodeInternal, "Thumbnail deletion failed")
	_, err = f.repo.GetByID(ctx, v.ID)
	require.NoError(t, err, "row stays while an asset could not be removed")

	f.store.FailDelete["image"] = false
	require.NoError(t, f.svc.Delete(ctx, f.owner.ID, v.ID))
	assert.Zero(t, f.store.Count())

	_, err = f.repo.GetByID(ctx, v.ID)
	assertAppError(t, err, models.CodeNotFound, "")

	var comments int64
	require.NoError(t, f.db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)
	assert.Equal(t, []string{events.VideoPublished, events.VideoDeleted}, f.publisher.Types())
}

func TestVideoService_TogglePublish(t *testing.T) {
	f := newVideoFixture(t, "")
	ctx := context.Background()
	v := f.publish(t, "clip", "public")

	toggled, err := f.svc.TogglePublish(ctx, f.owner.ID, v.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPublic)

	toggled, err = f.svc.TogglePublish(ctx, f.owner.ID, v.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsPublic)

	_, err = f.svc.TogglePublish(ctx, f.viewer.ID, v.ID)
	assertAppError(t, err, models.CodeForbidden, "")
}

func TestVideoService_List(t *testing.T) {
	f := newVideoFixture(t, "")
	ctx := context.Background()
	f.publish(t, "Cats compilation", "public")
	f.publish(t, "Dogs", "public")
	f.publish(t, "Private cats", "private")

	page, err := f.svc.List(ctx, ListVideosInput{Query: "CATS", ViewerID: f.viewer.ID, Page: models.Page{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalDocs)

	own, err := f.svc.List(ctx, ListVideosInput{UserID: f.owner.ID, ViewerID: f.owner.ID, Page: models.Page{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, own.TotalDocs)
	assert.Len(t, own.Docs, 2)
	assert.True(t, own.HasNextPage)

	_, err = f.svc.List(ctx, ListVideosInput{SortBy: "likes", Page: models.Page{Page: 1, Limit: 10}})
	assertValidationError(t, err)
	_, err = f.svc.List(ctx, ListVideosInput{SortType: "sideways", Page: models.Page{Page: 1, Limit: 10}})
	assertValidationError(t, err)
}
