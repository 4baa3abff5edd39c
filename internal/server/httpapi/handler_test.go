package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/courseauth/internal/logging"
	"github.com/dmitrijs2005/courseauth/internal/server/auth"
	"github.com/dmitrijs2005/courseauth/internal/server/config"
	"github.com/dmitrijs2005/courseauth/internal/server/models"
	"github.com/dmitrijs2005/courseauth/internal/server/notify"
	"github.com/dmitrijs2005/courseauth/internal/server/password"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/courseauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type captureNotifier struct {
	sent []*notify.Message
}

func (n *captureNotifier) Send(_ context.Context, msg *notify.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	manager  *repomanager.MemoryRepositoryManager
	hasher   *password.Hasher
	issuer   *auth.Issuer
	notifier *captureNotifier
	logs     *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := auth.NewCodec([]byte("http-test-secret"), "HS256")
	require.NoError(t, err)
	renderer, err := notify.NewRenderer("Course Platform", "http://localhost:5173", 48*time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()

	var logs bytes.Buffer
	logger := logging.NewJSONLogger(&logs, "debug")
	m := repomanager.NewMemoryRepositoryManager()
	n := &captureNotifier{}
	hasher := password.NewHasher(bcrypt.MinCost)

	svc := services.NewAuthService(nil, m, cfg, services.AuthDeps{
		Codec: codec, Hasher: hasher, Renderer: renderer, Notifier: n, Logger: logger,
	})

	return &testEnv{
		router:   NewRouter(NewHandler(svc, logger)),
		manager:  m,
		hasher:   hasher,
		issuer:   auth.NewIssuer(codec),
		notifier: n,
		logs:     &logs,
	}
}

func (e *testEnv) addUser(t *testing.T, email, pw string, active, super bool) *models.User {
	t.Helper()
	hash, err := e.hasher.Hash(pw)
	require.NoError(t, err)
	u, err := e.manager.Users(nil).Create(context.Background(), &models.User{
		Email: email, FullName: "Test User", PasswordHash: hash, IsActive: active, IsSuperuser: super,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, APIPrefix+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, APIPrefix+path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func detailOf(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, w)["detail"]
}

func (e *testEnv) login(t *testing.T, email, pw string) tokenResponse {
	t.Helper()
	w := e.do(t, postForm("/login/access-token", url.Values{"username": {email}, "password": {pw}}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[tokenResponse](t, w)
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "alice@example.com", "s3cret-pw", true, false)
	e.addUser(t, "bob@example.com", "s3cret-pw", false, false)

	t.Run("form", func(t *testing.T) {
		tok := e.login(t, "alice@example.com", "s3cret-pw")
		assert.Equal(t, "bearer", tok.TokenType)
		assert.NotEmpty(t, tok.AccessToken)
		assert.NotEmpty(t, tok.RefreshToken)
	})

	t.Run("json", func(t *testing.T) {
		w := e.do(t, postJSON(t, "/login", map[string]string{"email": "alice@example.com", "password": "s3cret-pw"}))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "bearer", decode[tokenResponse](t, w).TokenType)
	})

	tests := []struct {
		name   string
		form   url.Values
		status int
		detail string
	}{
		{"wrong password", url.Values{"username": {"alice@example.com"}, "password": {"nope"}}, http.StatusBadRequest, "Incorrect email or password"},
		{"unknown email", url.Values{"username": {"ghost@example.com"}, "password": {"nope"}}, http.StatusBadRequest, "Incorrect email or password"},
		{"inactive", url.Values{"username": {"bob@example.com"}, "password": {"s3cret-pw"}}, http.StatusBadRequest, "Inactive user"},
		{"missing password", url.Values{"username": {"alice@example.com"}}, http.StatusUnprocessableEntity, "username and password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, postForm("/login", tt.form))
			require.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.detail, detailOf(t, w))
		})
	}
}

func TestRefresh(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "alice@example.com", "s3cret-pw", true, false)
	tok := e.login(t, "alice@example.com", "s3cret-pw")

	t.Run("query parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, APIPrefix+"/login/refresh-token?refresh_token="+url.QueryEscape(tok.RefreshToken), nil)
		w := e.do(t, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decode[tokenResponse](t, w)
		assert.Equal(t, tok.RefreshToken, got.RefreshToken)
		assert.Equal(t, "bearer", got.TokenType)
	})

	t.Run("json body", func(t *testing.T) {
		w := e.do(t, postJSON(t, "/refresh", map[string]string{"refresh_token": tok.RefreshToken}))
		require.Equal(t, http.StatusOK, w.Code)
	})

	tests := []struct {
		name   string
		token  string
		detail string
	}{
		{"garbage", "abc.def.ghi", "Invalid or expired refresh token"},
		{"access token", tok.AccessToken, "Invalid token type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, postJSON(t, "/refresh", map[string]string{"refresh_token": tt.token}))
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.detail, detailOf(t, w))
		})
	}

	t.Run("missing token", func(t *testing.T) {
		w := e.do(t, postJSON(t, "/refresh", map[string]string{}))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestRevoke(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "alice@example.com", "s3cret-pw", true, false)
	tok := e.login(t, "alice@example.com", "s3cret-pw")

	w := e.do(t, postJSON(t, "/revoke", map[string]string{"refresh_token": tok.RefreshToken}))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Not authenticated", detailOf(t, w))

	w = e.do(t, withBearer(postJSON(t, "/login/revoke-token", map[string]string{"refresh_token": "junk"}), tok.AccessToken))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", detailOf(t, w))

	for i := 0; i < 2; i++ {
		w = e.do(t, withBearer(postJSON(t, "/revoke", map[string]string{"refresh_token": tok.RefreshToken}), tok.AccessToken))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Refresh token revoked", decode[messageResponse](t, w).Message)
	}

	w = e.do(t, postJSON(t, "/refresh", map[string]string{"refresh_token": tok.RefreshToken}))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Refresh token not found or revoked", detailOf(t, w))
}

func TestTestToken(t *testing.T) {
	e := newTestEnv(t)
	u := e.addUser(t, "alice@example.com", "s3cret-pw", true, false)
	tok := e.login(t, "alice@example.com", "s3cret-pw")

	w := e.do(t, withBearer(postJSON(t, "/login/test-token", nil), tok.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, u.ID, got["id"])
	assert.Equal(t, "alice@example.com", got["email"])
	assert.Equal(t, "Test User", got["full_name"])
	assert.NotContains(t, got, "hashed_password")

	w = e.do(t, withBearer(postJSON(t, "/login/test-token", nil), tok.RefreshToken))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Could not validate credentials", detailOf(t, w))

	ghost, err := e.issuer.IssueAccess("no-such-user", time.Minute)
	require.NoError(t, err)
	w = e.do(t, withBearer(postJSON(t, "/login/test-token", nil), ghost))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPasswordRecovery_SameAnswerForEveryone(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "alice@example.com", "s3cret-pw", true, false)

	known := e.do(t, postJSON(t, "/password-recovery/alice@example.com", nil))
	unknown := e.do(t, postJSON(t, "/password-recovery/ghost@example.com", nil))

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	require.Len(t, e.notifier.sent, 1)
	assert.Equal(t, "alice@example.com", e.notifier.sent[0].To)
}

func TestResetPassword(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "alice@example.com", "old-password", true, false)
	e.addUser(t, "bob@example.com", "old-password", false, false)

	reset := func(email string) string {
		tok, err := e.issuer.IssueReset(email, time.Hour)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name   string
		body   map[string]string
		status int
		detail string
	}{
		{"too short", map[string]string{"token": reset("alice@example.com"), "new_password": "short"}, http.StatusUnprocessableEntity, ""},
		{"invalid token", map[string]string{"token": "bad", "new_password": "new-password"}, http.StatusBadRequest, "Invalid token"},
		{"unknown account", map[string]string{"token": reset("ghost@example.com"), "new_password": "new-password"}, http.StatusNotFound, "The user with this email does not exist in the system."},
		{"inactive", map[string]string{"token": reset("bob@example.com"), "new_password": "new-password"}, http.StatusBadRequest, "Inactive user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, postJSON(t, "/reset-password", tt.body))
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.detail != "" {
				assert.Equal(t, tt.detail, detailOf(t, w))
			}
		})
	}

	w := e.do(t, postJSON(t, "/reset-password", map[string]string{"token": reset("alice@example.com"), "new_password": "new-password"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Password updated successfully", decode[messageResponse](t, w).Message)

	e.login(t, "alice@example.com", "new-password")

	cyrillic := strings.Repeat("п", 40)
	w = e.do(t, postJSON(t, "/reset-password", map[string]string{"token": reset("alice@example.com"), "new_password": cyrillic}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	e.login(t, "alice@example.com", cyrillic)
}

func TestRecoverPasswordHTML(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "alice@example.com", "s3cret-pw", true, false)
	e.addUser(t, "admin@example.com", "s3cret-pw", true, true)

	plain := e.login(t, "alice@example.com", "s3cret-pw")
	admin := e.login(t, "admin@example.com", "s3cret-pw")

	w := e.do(t, withBearer(postJSON(t, "/password-recovery-html-content/alice@example.com", nil), plain.AccessToken))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "The user doesn't have enough privileges", detailOf(t, w))

	w = e.do(t, withBearer(postJSON(t, "/password-recovery-html-content/alice@example.com", nil), admin.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Course Platform - Password recovery for user alice@example.com", w.Header().Get("subject"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "/reset-password?token=")
	assert.Empty(t, e.notifier.sent)

	w = e.do(t, withBearer(postJSON(t, "/password-recovery-html-content/ghost@example.com", nil), admin.AccessToken))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestLogger_WritesOneLinePerRequest(t *testing.T) {
	e := newTestEnv(t)
	e.logs.Reset()

	e.do(t, postForm("/login", url.Values{"username": {"x"}, "password": {"y"}}))

	out := e.logs.String()
	assert.Contains(t, out, `"msg":"request"`)
	assert.Contains(t, out, `"status":400`)
	assert.Contains(t, out, `"path":"/api/v1/login"`)
}
