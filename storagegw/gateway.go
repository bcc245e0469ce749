package storagegw

import (
	"context"
	"fmt"
	"time"

	"vodforge/config"
	"vodforge/models"
	"vodforge/tokens"
)

// CredentialTTL bounds how long an issued upload credential stays usable.
const CredentialTTL = 15 * time.Minute

// Gateway issues short-lived, scoped write credentials for direct
// client-to-storage upload and read URLs for serving stored bytes. The API
// tier never proxies file bytes; clients talk to storage directly.
type Gateway interface {
	// IssueUploadCredential returns a credential granting one PUT of the
	// given storage key. Valid for CredentialTTL.
	IssueUploadCredential(ctx context.Context, creatorID, storageKey, contentType string) (*models.UploadCredential, error)
	// ReadURL returns a URL from which the object's bytes can be fetched.
	ReadURL(ctx context.Context, storageKey string) (string, error)
	// Exists reports whether an object is present under the storage key.
	Exists(ctx context.Context, storageKey string) (bool, error)
}

func expiryUnix() int64 {
	return time.Now().Add(CredentialTTL).Unix()
}

// New builds the gateway for the configured storage backend, dispatching on
// the backend name the same way writes dispatch on destination type.
func New(ctx context.Context, caps config.Capabilities, signer *tokens.Signer) (Gateway, error) {
	switch caps.StorageBackend {
	case "gcs":
		return NewGCSGateway(ctx, caps.GCSBucket, caps.GCSCredentialsJSON)
	case "s3":
		return NewS3Gateway(ctx, caps.S3Bucket, caps.S3Region, caps.S3AccessKey, caps.S3SecretKey)
	case "local":
		return NewLocalGateway(config.GetMediaDir(), config.GetPublicBaseURL(), signer), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", caps.StorageBackend)
	}
}
