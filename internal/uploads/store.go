package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/lunanails/booking-api/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// MaxImageBytes caps uploaded design references.
const MaxImageBytes = 10 << 20

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ErrUnsupportedType is returned for uploads that are not images we accept.
var ErrUnsupportedType = fmt.Errorf("uploads: unsupported content type")

// Store keeps nail-design reference images in S3, keyed by appointment.
// If bucket is empty, the store is disabled and uploads are rejected.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled returns true if image storage is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// SaveDesignImage streams a design reference to S3 and returns the object
// key. Keys are date-partitioned so a month of uploads can be listed or
// expired in one prefix.
func (s *Store) SaveDesignImage(ctx context.Context, appointmentID uuid.UUID, contentType string, body io.Reader) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("uploads: store not configured")
	}

	ext, ok := allowedContentTypes[normalizeContentType(contentType)]
	if !ok {
		return "", ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("uploads: read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("uploads: image exceeds %d bytes", MaxImageBytes)
	}

	now := s.now().UTC()
	key := fmt.Sprintf("designs/%d/%02d/%s%s", now.Year(), now.Month(), appointmentID, ext)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploads: s3 put %s: %w", key, err)
	}

	s.logger.Info("stored design image",
		"appointment_id", appointmentID,
		"s3_key", key,
		"bytes", len(data),
	)
	return key, nil
}

// FetchDesignImage streams a stored image back, with its content type.
func (s *Store) FetchDesignImage(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !s.Enabled() {
		return nil, "", fmt.Errorf("uploads: store not configured")
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("uploads: s3 get %s: %w", key, err)
	}
	contentType := ""
	if resp.ContentType != nil {
		contentType = *resp.ContentType
	}
	return resp.Body, contentType, nil
}

func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
