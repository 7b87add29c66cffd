package supabase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UploadBlob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/users-images/profiles/1_abc.jpg", r.URL.Path)
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		assert.Equal(t, "max-age=3600", r.Header.Get("cache-control"))
		assert.Equal(t, "false", r.Header.Get("x-upsert"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "jpeg-bytes", string(body))
		_, _ = io.WriteString(w, `{"Key":"users-images/profiles/1_abc.jpg"}`)
	}))
	defer srv.Close()

	store := New(srv.URL, "key", 3600, 5*time.Second)
	url, err := store.UploadBlob(context.Background(), "users-images", "profiles/1_abc.jpg", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/users-images/profiles/1_abc.jpg", url)
}

func TestStore_UploadBlob_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`)
	}))
	defer srv.Close()

	store := New(srv.URL, "key", 3600, 5*time.Second)
	_, err := store.UploadBlob(context.Background(), "users-images", "works/1.png", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The resource already exists")
	assert.Contains(t, err.Error(), "400")
}

func TestPublicURL_EscapesSegments(t *testing.T) {
	store := New("https://proj.supabase.co/", "key", 60, time.Second)
	assert.Equal(t,
		"https://proj.supabase.co/storage/v1/object/public/users-images/profiles/a%20b.jpg",
		store.PublicURL("users-images", "profiles/a b.jpg"))
}
