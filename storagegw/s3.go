package storagegw

import (
	"context"
	"errors"
	"fmt"

	"vodforge/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Gateway serves upload and read credentials as presigned URLs against an
// S3 bucket.
type S3Gateway struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Gateway creates a gateway for the given bucket. With explicit keys it
// uses a static credentials provider; otherwise it falls back to the default
// AWS credential chain (env, shared config, instance role).
func NewS3Gateway(ctx context.Context, bucket, region, accessKey, secretKey string) (*S3Gateway, error) {
	var client *s3.Client
	if accessKey != "" && secretKey != "" {
		client = s3.New(s3.Options{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		})
	} else {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		client = s3.NewFromConfig(cfg)
	}
	return &S3Gateway{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}, nil
}

func (g *S3Gateway) IssueUploadCredential(ctx context.Context, creatorID, storageKey, contentType string) (*models.UploadCredential, error) {
	req, err := g.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(storageKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(CredentialTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %s: %w", storageKey, err)
	}
	return &models.UploadCredential{
		URL:       req.URL,
		ExpiresAt: expiryUnix(),
	}, nil
}

func (g *S3Gateway) ReadURL(ctx context.Context, storageKey string) (string, error) {
	req, err := g.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(CredentialTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign read for %s: %w", storageKey, err)
	}
	return req.URL, nil
}

func (g *S3Gateway) Exists(ctx context.Context, storageKey string) (bool, error) {
	_, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object %s: %w", storageKey, err)
	}
	return true, nil
}
