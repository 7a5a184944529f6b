package repository

import (
	"context"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ImageStore removes a deleted product's images from the object storage
// bucket. Cleanup is best-effort: a failed delete is logged and skipped,
// it never blocks the product deletion.
type ImageStore struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

func NewImageStore(client *s3.Client, bucket string, logger *zap.Logger) *ImageStore {
	return &ImageStore{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

func (s *ImageStore) DeleteImages(ctx context.Context, imageURLs []string) {
	for _, imageURL := range imageURLs {
		key, ok := s.objectKey(imageURL)
		if !ok {
			continue
		}

		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			s.logger.Warn("Failed to delete product image",
				zap.String("bucket", s.bucket),
				zap.String("key", key),
				zap.Error(err))
			continue
		}

		s.logger.Info("Deleted product image",
			zap.String("bucket", s.bucket),
			zap.String("key", key))
	}
}

// objectKey extracts the bucket key from an image URL. URLs pointing
// outside our bucket host are ignored rather than treated as errors.
func (s *ImageStore) objectKey(imageURL string) (string, bool) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		s.logger.Warn("Skipping unparseable image URL", zap.String("url", imageURL))
		return "", false
	}
	if !strings.Contains(parsed.Host, s.bucket) {
		return "", false
	}

	key := strings.TrimPrefix(parsed.Path, "/")
	if key == "" {
		return "", false
	}
	return key, true
}
