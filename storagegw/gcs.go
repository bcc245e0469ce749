package storagegw

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"vodforge/models"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSGateway serves upload and read credentials as V4 signed URLs against a
// Google Cloud Storage bucket.
type GCSGateway struct {
	client *storage.Client
	bucket string
}

// NewGCSGateway creates a gateway for the given bucket, authenticating with
// a base64-encoded service account key.
func NewGCSGateway(ctx context.Context, bucket, credentialsB64 string) (*GCSGateway, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode GCS credentials: %w", err)
	}
	client, err := storage.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSGateway{client: client, bucket: bucket}, nil
}

func (g *GCSGateway) IssueUploadCredential(ctx context.Context, creatorID, storageKey, contentType string) (*models.UploadCredential, error) {
	expires := time.Now().Add(CredentialTTL)
	url, err := g.client.Bucket(g.bucket).SignedURL(storageKey, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      "PUT",
		Expires:     expires,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload URL: %w", err)
	}
	return &models.UploadCredential{URL: url, ExpiresAt: expires.Unix()}, nil
}

func (g *GCSGateway) ReadURL(ctx context.Context, storageKey string) (string, error) {
	url, err := g.client.Bucket(g.bucket).SignedURL(storageKey, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(CredentialTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign read URL: %w", err)
	}
	return url, nil
}

func (g *GCSGateway) Exists(ctx context.Context, storageKey string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(storageKey).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", storageKey, err)
	}
	return true, nil
}

// Close releases the underlying client.
func (g *GCSGateway) Close() error {
	return g.client.Close()
}
