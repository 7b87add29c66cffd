// Package supabase uploads blobs through the Supabase storage REST API.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dalilfazara/dalil/pkg/blobstore"
	"github.com/dalilfazara/dalil/pkg/tracing"
)

// Store uploads objects to <project>/storage/v1
type Store struct {
	baseURL      string
	apiKey       string
	cacheControl string
	client       *http.Client
}

var _ blobstore.Store = (*Store)(nil)

// New returns a Store. cacheControlSeconds is sent as the object's
// cache-control max age.
func New(projectURL, apiKey string, cacheControlSeconds int, timeout time.Duration) *Store {
	return &Store{
		baseURL:      strings.TrimRight(projectURL, "/") + "/storage/v1",
		apiKey:       apiKey,
		cacheControl: fmt.Sprintf("%d", cacheControlSeconds),
		client:       tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
	}
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// PublicURL is where a public bucket serves objectPath
func (s *Store) PublicURL(bucket, objectPath string) string {
	return s.baseURL + "/object/public/" + url.PathEscape(bucket) + "/" + escapePath(objectPath)
}

// UploadBlob posts data without upsert so an existing object is never replaced
func (s *Store) UploadBlob(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	endpoint := s.baseURL + "/object/" + url.PathEscape(bucket) + "/" + escapePath(objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("cache-control", "max-age="+s.cacheControl)
	req.Header.Set("x-upsert", "false")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.TrimSpace(string(raw))
		if gjson.ValidBytes(raw) {
			parsed := gjson.ParseBytes(raw)
			if m := parsed.Get("message"); m.Exists() {
				msg = m.String()
			} else if m := parsed.Get("error"); m.Exists() {
				msg = m.String()
			}
		}
		return "", fmt.Errorf("failed to upload %s: storage returned %d: %s", objectPath, resp.StatusCode, msg)
	}

	return s.PublicURL(bucket, objectPath), nil
}
