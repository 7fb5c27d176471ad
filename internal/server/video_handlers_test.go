package server

import (
	"net/http"
	"testing"

	"vidtube/internal/events"
	"vidtube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishForm(t *testing.T, fields map[string]string) requestOption {
	return multipartForm(t, fields,
		filePart{field: "videoFile", filename: "clip.mp4", contentType: "video/mp4"},
		filePart{field: "thumbnail", filename: "thumb.jpg", contentType: "image/jpeg"},
	)
}

func TestPublishVideo(t *testing.T) {
	env := newTestEnv(t)
	owner, token := env.userWithToken(t, "alice")

	resp, body := env.do(t, http.MethodPost, "/api/v1/videos", withToken(token),
		publishForm(t, map[string]string{"title": "First", "description": "hello"}))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)

	var video models.Video
	body.decode(t, &video)
	assert.Equal(t, owner.ID, video.OwnerID)
	assert.True(t, video.IsPublic)
	assert.Equal(t, 12.35, video.Duration)
	assert.NotEmpty(t, video.VideoFile.URL)
	assert.NotEmpty(t, video.Thumbnail.URL)
	assert.Equal(t, 2, env.store.Count())
	assert.Contains(t, env.publisher.Types(), events.VideoPublished)
}

func TestPublishVideo_Validation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.userWithToken(t, "alice")

	tests := []struct {
		name string
		opt  requestOption
		msg  string
	}{
		{"missing title", publishForm(t, map[string]string{"title": "  "}), "Title is required"},
		{"bad visibility", publishForm(t, map[string]string{"title": "x", "visibility": "unlisted"}),
			"Invalid visibility option. Available options: public, private"},
		{"missing files", multipartForm(t, map[string]string{"title": "x"}), "Video and thumbnail are required"},
		{"wrong mime", multipartForm(t, map[string]string{"title": "x"},
			filePart{field: "videoFile", filename: "clip.txt", contentType: "text/plain"},
			filePart{field: "thumbnail", filename: "thumb.jpg", contentType: "image/jpeg"}), "Video file is not a video"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/api/v1/videos", withToken(token), tt.opt)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.msg, body.Message)
		})
	}
	assert.Zero(t, env.store.Count())
}

func TestPublishVideo_PrivateViaQuery(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.userWithToken(t, "alice")

	resp, body := env.do(t, http.MethodPost, "/api/v1/videos?visibility=private", withToken(token),
		publishForm(t, map[string]string{"title": "Secret"}))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var video models.Video
	body.decode(t, &video)
	assert.False(t, video.IsPublic)
}

func TestGetVideo(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.userWithToken(t, "alice")
	_, bobToken := env.userWithToken(t, "bob")
	public := env.createVideo(t, alice, "public", true)
	private := env.createVideo(t, alice, "private", false)

	resp, body := env.do(t, http.MethodGet, "/api/v1/videos/"+itoa(public.ID), withToken(bobToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.Video
	body.decode(t, &got)
	assert.Equal(t, int64(1), got.Views)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "alice", got.Owner.Username)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/videos/"+itoa(private.ID), withToken(bobToken))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/videos/"+itoa(private.ID), withToken(aliceToken))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/v1/videos/abc", withToken(bobToken))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid video ID", body.Message)
}

func TestListVideos(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.userWithToken(t, "alice")
	env.createVideo(t, alice, "cats", true)
	env.createVideo(t, alice, "dogs", true)
	env.createVideo(t, alice, "drafts", false)

	resp, body := env.do(t, http.MethodGet, "/api/v1/videos?sortBy=title&sortType=asc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.Paginated[models.Video]
	body.decode(t, &page)
	require.Len(t, page.Docs, 2)
	assert.Equal(t, "cats", page.Docs[0].Title)
	assert.Equal(t, "dogs", page.Docs[1].Title)

	resp, body = env.do(t, http.MethodGet, "/api/v1/videos?userId="+itoa(alice.ID), withToken(aliceToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body.decode(t, &page)
	assert.EqualValues(t, 3, page.TotalDocs)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/videos?sortBy=password")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/videos?page=x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateVideo(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.userWithToken(t, "alice")
	_, bobToken := env.userWithToken(t, "bob")
	video := env.createVideo(t, alice, "clip", true)
	path := "/api/v1/videos/" + itoa(video.ID)

	t.Run("visibility only", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPatch, path, withToken(aliceToken),
			withJSON(map[string]string{"visibility": "private"}))
		require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
		var got models.Video
		body.decode(t, &got)
		assert.False(t, got.IsPublic)
		assert.Equal(t, "clip", got.Title)
	})

	t.Run("no fields", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPatch, path, withToken(aliceToken), withJSON(map[string]string{}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("not owner", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPatch, path, withToken(bobToken),
			withJSON(map[string]string{"title": "mine now"}))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "You are not allowed to update this video", body.Message)
	})

	t.Run("new thumbnail replaces the old one", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPatch, path, withToken(aliceToken),
			multipartForm(t, map[string]string{"title": "Clip v2"},
				filePart{field: "thumbnail", filename: "new.png", contentType: "image/png"}))
		require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
		var got models.Video
		body.decode(t, &got)
		assert.Equal(t, "Clip v2", got.Title)
		assert.NotEqual(t, video.Thumbnail.URL, got.Thumbnail.URL)
		assert.False(t, env.store.Has(video.Thumbnail.StorageID))
	})
}

func TestDeleteVideo(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.userWithToken(t, "alice")
	_, bobToken := env.userWithToken(t, "bob")
	video := env.createVideo(t, alice, "clip", true)
	path := "/api/v1/videos/" + itoa(video.ID)

	resp, _ := env.do(t, http.MethodDelete, path, withToken(bobToken))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, path, withToken(aliceToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{video.VideoFile.StorageID, video.Thumbnail.StorageID}, env.store.Deleted())
	assert.Zero(t, env.store.Count())

	var count int64
	require.NoError(t, env.db.Model(&models.Video{}).Where("id = ?", video.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.Contains(t, env.publisher.Types(), events.VideoDeleted)

	resp, _ = env.do(t, http.MethodDelete, path, withToken(aliceToken))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteVideo_AssetFailureKeepsRow(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.userWithToken(t, "alice")
	video := env.createVideo(t, alice, "clip", true)
	env.store.FailDelete["image"] = true

	resp, body := env.do(t, http.MethodDelete, "/api/v1/videos/"+itoa(video.ID), withToken(token))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Thumbnail deletion failed", body.Message)

	var count int64
	require.NoError(t, env.db.Model(&models.Video{}).Where("id = ?", video.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTogglePublish(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.userWithToken(t, "alice")
	video := env.createVideo(t, alice, "clip", true)

	resp, body := env.do(t, http.MethodPatch, "/api/v1/videos/toggle/publish/"+itoa(video.ID), withToken(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.Video
	body.decode(t, &got)
	assert.False(t, got.IsPublic)
}
