package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"vidtube/internal/config"
	"vidtube/internal/media"
	"vidtube/internal/models"
	"vidtube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv is a fully wired server backed by SQLite, miniredis and in-memory media and events.
type testEnv struct {
	server    *Server
	app       *fiber.App
	db        *gorm.DB
	mr        *miniredis.Miniredis
	store     *testutil.FakeMediaStore
	publisher *testutil.RecordingPublisher
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                "test",
		AllowedOrigins:     "http://localhost:5173",
		FeatureFlags:       "watch_history=on",
		AccessTokenSecret:  "access-secret-for-handler-tests",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenSecret: "refresh-secret-for-handler-tests",
		RefreshTokenExpiry: 240 * time.Hour,
		TokenIssuer:        "vidtube-api",
		TokenAudience:      "vidtube-client",
		UploadTempDir:      t.TempDir(),
		UploadMaxSizeMB:    5,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := testutil.NewFakeMediaStore()
	store.Duration = 12.3456
	publisher := &testutil.RecordingPublisher{}

	s, err := NewServerWithDeps(testConfig(t), Deps{
		DB:        db,
		Redis:     rdb,
		Store:     store,
		Publisher: publisher,
	})
	require.NoError(t, err)

	return &testEnv{
		server:    s,
		app:       s.NewApp(),
		db:        db,
		mr:        mr,
		store:     store,
		publisher: publisher,
	}
}

// userWithToken inserts a user directly and signs an access token for it.
func (e *testEnv) userWithToken(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Fullname: strings.ToUpper(username[:1]) + username[1:],
		Password: "not-a-real-hash",
		Avatar:   models.MediaAsset{URL: "https://media.test/images/" + username, StorageID: "images/" + username},
	}
	require.NoError(t, e.db.Create(user).Error)

	token, err := e.server.tokens.IssueAccess(user)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) createVideo(t *testing.T, owner *models.User, title string, public bool) *models.Video {
	t.Helper()
	video := &models.Video{
		Title:     title,
		VideoFile: models.MediaAsset{URL: "https://media.test/videos/" + title, StorageID: "videos/" + title},
		Thumbnail: models.MediaAsset{URL: "https://media.test/images/" + title, StorageID: "images/" + title},
		IsPublic:  public,
		OwnerID:   owner.ID,
	}
	require.NoError(t, e.db.Create(video).Error)
	e.store.Assets[video.VideoFile.StorageID] = media.ResourceVideo
	e.store.Assets[video.Thumbnail.StorageID] = media.ResourceImage
	return video
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func (e envelope) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, v))
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set(fiber.HeaderAuthorization, "Bearer "+token) }
}

func withCookie(name, value string) requestOption {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func withJSON(v any) requestOption {
	return func(r *http.Request) {
		raw, _ := json.Marshal(v)
		r.Body = io.NopCloser(bytes.NewReader(raw))
		r.ContentLength = int64(len(raw))
		r.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
}

func withMultipart(body *bytes.Buffer, contentType string) requestOption {
	return func(r *http.Request) {
		r.Body = io.NopCloser(bytes.NewReader(body.Bytes()))
		r.ContentLength = int64(body.Len())
		r.Header.Set(fiber.HeaderContentType, contentType)
	}
}

// do sends a request through the full middleware chain and decodes the response envelope.
func (e *testEnv) do(t *testing.T, method, path string, opts ...requestOption) (*http.Response, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

type filePart struct {
	field       string
	filename    string
	contentType string
}

// multipartForm builds a multipart body with text fields and small files of the given MIME types.
func multipartForm(t *testing.T, fields map[string]string, files ...filePart) requestOption {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("binary-" + f.filename))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return withMultipart(body, w.FormDataContentType())
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody(resp *http.Response, v any) error {
	defer func() { _ = resp.Body.Close() }()
	return json.NewDecoder(resp.Body).Decode(v)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
