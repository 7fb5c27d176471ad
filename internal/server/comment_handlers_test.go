package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"vidtube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetComments_AscendingPages(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.userWithToken(t, "alice")
	video := env.createVideo(t, alice, "clip", true)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	// Inserted newest first so ordering cannot come from row IDs.
	for i := 4; i >= 0; i-- {
		require.NoError(t, env.db.Create(&models.Comment{
			Content:   fmt.Sprintf("comment %d", i),
			OwnerID:   alice.ID,
			VideoID:   video.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	resp, body := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/comments/%d?page=2&limit=2", video.ID), withToken(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page models.Paginated[models.Comment]
	body.decode(t, &page)
	require.Len(t, page.Docs, 2)
	assert.Equal(t, "comment 2", page.Docs[0].Content)
	assert.Equal(t, "comment 3", page.Docs[1].Content)
	assert.EqualValues(t, 5, page.TotalDocs)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasPrevPage)
	assert.True(t, page.HasNextPage)
	require.NotNil(t, page.Docs[0].Owner)
	assert.Equal(t, "alice", page.Docs[0].Owner.Username)
}

func TestGetComments_Errors(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.userWithToken(t, "alice")
	video := env.createVideo(t, alice, "clip", true)

	resp, _ := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/comments/%d?limit=ten", video.ID), withToken(token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/comments/9999", withToken(token))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.userWithToken(t, "alice")
	_, bobToken := env.userWithToken(t, "bob")
	admin, adminToken := env.userWithToken(t, "moderator")
	require.NoError(t, env.db.Model(admin).Update("is_admin", true).Error)
	video := env.createVideo(t, alice, "clip", true)

	resp, body := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/comments/%d", video.ID), withToken(aliceToken),
		withJSON(map[string]string{"content": "   "}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Content is required", body.Message)

	resp, body = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/comments/%d", video.ID), withToken(aliceToken),
		withJSON(map[string]string{"content": "  nice video  "}))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var comment models.Comment
	body.decode(t, &comment)
	assert.Equal(t, "nice video", comment.Content)
	path := fmt.Sprintf("/api/v1/comments/c/%d", comment.ID)

	resp, _ = env.do(t, http.MethodPatch, path, withToken(bobToken), withJSON(map[string]string{"content": "hijacked"}))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.do(t, http.MethodPatch, path, withToken(aliceToken), withJSON(map[string]string{"content": "edited"}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body.decode(t, &comment)
	assert.Equal(t, "edited", comment.Content)

	resp, _ = env.do(t, http.MethodDelete, path, withToken(bobToken))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, path, withToken(adminToken))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, path, withToken(aliceToken))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodDelete, "/api/v1/comments/c/zero", withToken(aliceToken))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid comment ID", body.Message)
}
