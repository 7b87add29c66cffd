package visitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	now := time.UnixMilli(1710072000123)
	id := NewID(now)

	assert.True(t, strings.HasPrefix(id, "visitor_1710072000123_"))
	parts := strings.Split(id, "_")
	require.Len(t, parts, 3)
	assert.Len(t, parts[2], 9)
	assert.True(t, Valid(id))

	assert.NotEqual(t, id, NewID(now), "random suffix should differ")
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("visitor_1_abc"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("visitor_abc_123"))
	assert.False(t, Valid("visitor_1_ABC"))
	assert.False(t, Valid("session_1_abc"))
	assert.False(t, Valid("visitor_1_abc; drop"))
}

func TestRandomString(t *testing.T) {
	s := RandomString(64)
	assert.Len(t, s, 64)
	for _, c := range s {
		assert.Contains(t, base36, string(c))
	}
}

func TestGetOrCreate_IssuesCookieOnce(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	opts := Options{Secure: true, Now: func() time.Time { return fixed }}

	r := httptest.NewRequest(http.MethodPost, "/api/tracking.visit", nil)
	w := httptest.NewRecorder()
	id := GetOrCreate(w, r, opts)

	assert.True(t, strings.HasPrefix(id, "visitor_1700000000000_"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	// a second page load with the cookie keeps the identifier and writes nothing
	r2 := httptest.NewRequest(http.MethodPost, "/api/tracking.visit", nil)
	r2.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()
	assert.Equal(t, id, GetOrCreate(w2, r2, opts))
	assert.Empty(t, w2.Result().Cookies())
}

func TestGetOrCreate_ReplacesMalformedCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-visitor"})
	w := httptest.NewRecorder()

	id := GetOrCreate(w, r, Options{})
	assert.True(t, Valid(id))
	assert.Len(t, w.Result().Cookies(), 1)

	_, ok := FromRequest(r)
	assert.False(t, ok)
}
