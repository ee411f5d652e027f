package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/CJang10/my-style-ai/internal/config"
)

// IStorage defines the object storage operations the catalog needs. The rest
// of the system treats image references as opaque keys; only this package
// knows how to turn a key into a fetchable URL.
type IStorage interface {
	GeneratePresignedPutURL(ctx context.Context, ownerID, itemID, filename, contentType string) (url string, key string, err error)
	PublicURL(key string) string
	DeleteObject(ctx context.Context, key string) error
}

type s3Storage struct {
	cfg           *config.Config
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewS3Storage creates a new S3 storage service.
func NewS3Storage(cfg *config.Config) (IStorage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &s3Storage{
		cfg:           cfg,
		s3Client:      client,
		presignClient: s3.NewPresignClient(client),
	}, nil
}

// GeneratePresignedPutURL creates a pre-signed URL for uploading an item
// photo. Returns the URL and the generated object key.
func (s *s3Storage) GeneratePresignedPutURL(ctx context.Context, ownerID, itemID, filename, contentType string) (string, string, error) {
	// Strip any path components from the client-supplied filename.
	if idx := strings.LastIndexAny(filename, "/\\"); idx >= 0 {
		filename = filename[idx+1:]
	}
	objectKey := fmt.Sprintf("closet/%s/%s/%s_%s", ownerID, itemID, uuid.NewString(), filename)

	presignedReq, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", objectKey, err)
	}
	return presignedReq.URL, objectKey, nil
}

// PublicURL resolves an object key to its publicly fetchable URL. Empty keys
// resolve to empty strings so callers can pass item fields through directly.
func (s *s3Storage) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(s.cfg.ImageBaseURL, "/") + "/" + key
}

// DeleteObject removes an object. Used by the image cleanup task when an item
// is deleted.
func (s *s3Storage) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
