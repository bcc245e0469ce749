package storagegw

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"vodforge/logger"
	"vodforge/models"
	"vodforge/tokens"
)

// LocalGateway stores media on the local filesystem, served back by this
// server's /media/ route. Upload credentials are signed tokens targeting the
// /blob route instead of presigned cloud URLs, so the whole pipeline works
// without any cloud account. Intended for development and tests.
type LocalGateway struct {
	baseDir   string
	publicURL string
	signer    *tokens.Signer
}

// NewLocalGateway creates a gateway rooted at baseDir.
func NewLocalGateway(baseDir, publicURL string, signer *tokens.Signer) *LocalGateway {
	return &LocalGateway{
		baseDir:   baseDir,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		signer:    signer,
	}
}

func (g *LocalGateway) IssueUploadCredential(ctx context.Context, creatorID, storageKey, contentType string) (*models.UploadCredential, error) {
	token, exp, err := g.signer.SignUpload(creatorID, storageKey, CredentialTTL)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/blob?key=%s", g.publicURL, url.QueryEscape(storageKey))
	return &models.UploadCredential{URL: u, Token: token, ExpiresAt: exp}, nil
}

func (g *LocalGateway) ReadURL(ctx context.Context, storageKey string) (string, error) {
	return g.publicURL + "/media/" + storageKey, nil
}

func (g *LocalGateway) Exists(ctx context.Context, storageKey string) (bool, error) {
	path, err := g.resolve(storageKey)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return true, nil
}

// Put writes the object bytes under the storage key. Called by the /blob
// route after the upload token checks out.
func (g *LocalGateway) Put(storageKey string, reader io.Reader) error {
	path, err := g.resolve(storageKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", path, err)
	}
	logger.Debugf("Stored %s under %s", storageKey, g.baseDir)
	return nil
}

// BaseDir returns the root of the locally hosted media tree, used by the
// /media/ file server.
func (g *LocalGateway) BaseDir() string {
	return g.baseDir
}

// resolve maps a storage key to a filesystem path, rejecting keys that would
// escape the media root.
func (g *LocalGateway) resolve(storageKey string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(storageKey))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key: %s", storageKey)
	}
	return filepath.Join(g.baseDir, clean), nil
}
