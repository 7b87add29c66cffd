// Package blobstore uploads registration images to object storage and
// returns their public URL.
package blobstore

//go:generate mockgen -destination ../mocks/mock_blobstore.go -package pkgmocks -mock_names Store=MockBlobStore github.com/dalilfazara/dalil/pkg/blobstore Store

import (
	"context"
	"encoding/binary"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store uploads one object and returns the URL it is publicly served from
type Store interface {
	UploadBlob(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error)
}

var contentTypeExt = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

var imageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true}

// Extension derives the file extension from the validated content type. The
// client file name is consulted only when the type is unknown, and only for
// image extensions.
func Extension(filename, contentType string) string {
	if ext, ok := contentTypeExt[strings.ToLower(contentType)]; ok {
		return ext
	}
	if ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")); imageExts[ext] {
		return ext
	}
	return "bin"
}

// suffixLen is the length of the random base36 part of an object name
const suffixLen = 6

// randomSuffix returns suffixLen base36 characters drawn from a random uuid
func randomSuffix() string {
	id := uuid.New()
	s := strconv.FormatUint(binary.BigEndian.Uint64(id[8:]), 36)
	if len(s) < suffixLen {
		s = strings.Repeat("0", suffixLen-len(s)) + s
	}
	return s[len(s)-suffixLen:]
}

// ObjectPath builds <folder>/<unix millis>_<6 base36 chars>.<ext>
func ObjectPath(folder, ext string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s.%s", strings.Trim(folder, "/"), now.UnixMilli(), randomSuffix(), ext)
}
