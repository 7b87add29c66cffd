// Package s3 uploads blobs to Amazon S3 or any S3 compatible endpoint.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"github.com/dalilfazara/dalil/pkg/blobstore"
)

// Config holds the connection settings
type Config struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	ForcePath     bool
	PublicBaseURL string
	CacheControl  string
}

// Store uploads through the s3manager uploader
type Store struct {
	uploader      s3manageriface.UploaderAPI
	publicBaseURL string
	cacheControl  string
}

var _ blobstore.Store = (*Store)(nil)

// NewSession creates the AWS session for cfg. Static credentials are used when
// both keys are set, the default chain otherwise.
func NewSession(cfg Config) (*session.Session, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePath),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	return session.NewSession(awsCfg)
}

// New builds a Store from cfg
func New(cfg Config) (*Store, error) {
	sess, err := NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return NewWithUploader(s3manager.NewUploader(sess), cfg), nil
}

// NewWithUploader builds a Store around an existing uploader
func NewWithUploader(uploader s3manageriface.UploaderAPI, cfg Config) *Store {
	return &Store{
		uploader:      uploader,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		cacheControl:  cfg.CacheControl,
	}
}

// UploadBlob puts data at bucket/objectPath. The object never overwrites an
// existing key because callers generate unique paths.
func (s *Store) UploadBlob(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	input := &s3manager.UploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(objectPath),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if s.cacheControl != "" {
		input.CacheControl = aws.String(s.cacheControl)
	}

	out, err := s.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + bucket + "/" + objectPath, nil
	}
	return out.Location, nil
}
