package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Poutchouli/SharedMailbox-editor/internal/cache"
	"github.com/Poutchouli/SharedMailbox-editor/internal/ingest"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(cache.NewMemory("test"), Config{Secret: testSecret, CookieName: "sid", TTL: time.Hour})
	require.NoError(t, err)
	return m
}

func TestNewManager_Validates(t *testing.T) {
	_, err := NewManager(nil, Config{Secret: testSecret})
	assert.Error(t, err)

	_, err = NewManager(cache.NewMemory(""), Config{Secret: []byte("short")})
	assert.Error(t, err)
}

func TestLoad_IssuesCookieOnce(t *testing.T) {
	m := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s1, ck, err := m.Load(req)
	require.NoError(t, err)
	require.NotNil(t, ck)
	assert.True(t, s1.IsNew())
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(ck)
	s2, ck2, err := m.Load(req2)
	require.NoError(t, err)
	assert.Nil(t, ck2)
	assert.False(t, s2.IsNew())
	assert.Equal(t, s1.ID(), s2.ID())
}

func TestLoad_RejectsTamperedOrForeignCookies(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(cache.NewMemory(""), Config{Secret: []byte("another-secret-of-32-bytes-long!"), CookieName: "sid"})
	require.NoError(t, err)

	_, foreign, err := other.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	for name, val := range map[string]string{
		"garbage": "not-a-jwt",
		"foreign": foreign.Value,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: "sid", Value: val})
			s, ck, err := m.Load(req)
			require.NoError(t, err)
			assert.True(t, s.IsNew())
			assert.NotNil(t, ck)
		})
	}
}

func TestLoad_ExpiredCookie(t *testing.T) {
	m := newTestManager(t)
	_, ck, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(ck)
	s, _, err := m.Load(req)
	require.NoError(t, err)
	assert.True(t, s.IsNew())
}

func TestUpload_PopDeletes(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	s, _, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	_, ok, err := s.PopUpload(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	up := Upload{
		Filename: "perms.csv",
		Records:  []ingest.Record{{Identity: "stan", User: "kyle", AccessRights: "FullAccess"}},
		Encoding: ingest.EncodingUTF8,
	}
	require.NoError(t, s.PutUpload(ctx, up))

	got, ok, err := s.PopUpload(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, up, got)

	_, ok, err = s.PopUpload(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpload_IsolatedPerSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	a, _, _ := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	b, _, _ := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, a.PutUpload(ctx, Upload{Filename: "a.csv"}))

	_, ok, err := b.PopUpload(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMiddleware_AttachesSession(t *testing.T) {
	m := newTestManager(t)

	var seen *Context
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
}

func TestFromContext_Missing(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
