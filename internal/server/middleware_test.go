package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vidtube/internal/featureflags"
	"vidtube/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AuthRequired(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.userWithToken(t, "alice")

	forged := func(secret string) string {
		claims := jwt.MapClaims{
			"sub": "1",
			"iss": "vidtube-api",
			"aud": "vidtube-client",
			"exp": time.Now().Add(time.Hour).Unix(),
			"jti": "forged",
		}
		str, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return str
	}

	tests := []struct {
		name   string
		opts   []requestOption
		status int
	}{
		{"bearer header", []requestOption{withToken(token)}, http.StatusOK},
		{"cookie", []requestOption{withCookie(accessTokenCookie, token)}, http.StatusOK},
		{"missing token", nil, http.StatusUnauthorized},
		{"garbage token", []requestOption{withToken("not-a-jwt")}, http.StatusUnauthorized},
		{"wrong secret", []requestOption{withToken(forged("some-other-secret"))}, http.StatusUnauthorized},
		{"refresh secret is not an access secret", []requestOption{withToken(forged("refresh-secret-for-handler-tests"))}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodGet, "/api/v1/users/getUserInfo", tt.opts...)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == http.StatusOK {
				var got models.User
				body.decode(t, &got)
				assert.Equal(t, user.ID, got.ID)
				assert.Equal(t, "alice", got.Username)
			} else {
				assert.False(t, body.Success)
			}
		})
	}
}

func TestServer_AuthRequired_UnknownSubject(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.userWithToken(t, "ghost")
	require.NoError(t, env.db.Delete(&models.User{}, user.ID).Error)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/users/getUserInfo", withToken(token))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_OptionalAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/videos")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/videos", withToken("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_AdminRequired(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.userWithToken(t, "member")
	admin, adminToken := env.userWithToken(t, "boss")
	require.NoError(t, env.db.Model(admin).Update("is_admin", true).Error)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/admin/feature-flags", withToken(userToken))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/v1/admin/feature-flags", withToken(adminToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var flags []featureflags.Status
	body.decode(t, &flags)
	require.Len(t, flags, 1)
	assert.Equal(t, featureflags.WatchHistory, flags[0].Name)
	assert.Equal(t, "on", flags[0].Value)
	assert.True(t, flags[0].Enabled)

	resp, body = env.do(t, http.MethodPost, "/api/v1/admin/users/member/promote", withToken(adminToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var promoted models.User
	body.decode(t, &promoted)
	assert.True(t, promoted.IsAdmin)

	resp, body = env.do(t, http.MethodPost, "/api/v1/admin/users/boss/demote", withToken(adminToken))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "You cannot demote yourself", body.Message)

	resp, body = env.do(t, http.MethodGet, "/api/v1/admin/users", withToken(adminToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var admins []models.User
	body.decode(t, &admins)
	assert.Len(t, admins, 2)
}

func TestServer_CORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/videos", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := env.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.mr.Close()
	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_MetricsScrape(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestServer_SecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
