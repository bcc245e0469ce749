package tokens

import (
	"errors"
	"fmt"
	"time"

	"vodforge/models"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrWrongStorageKey  = errors.New("token not valid for this storage key")
)

const issuer = "vodforge"

// Signer issues and verifies the HMAC-signed upload credentials used by the
// local storage backend. The storage key is pinned inside the token: holding
// a credential for one key grants nothing for any other key. Expiry is the
// only reuse safeguard.
type Signer struct {
	secret []byte
}

// NewSigner returns a Signer using the given HMAC secret.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// SignUpload creates a scoped upload token for the creator and storage key.
func (s *Signer) SignUpload(creatorID, storageKey string, ttl time.Duration) (string, int64, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := &models.UploadClaims{
		Issuer:     issuer,
		Subject:    creatorID,
		IssuedAt:   now.Unix(),
		ExpiresAt:  exp.Unix(),
		StorageKey: storageKey,
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: s.secret}, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create signer: %w", err)
	}
	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign upload token: %w", err)
	}
	return token, exp.Unix(), nil
}

// VerifyUpload verifies the token signature and timestamps and checks the
// pinned storage key against the one the caller is writing to.
func (s *Signer) VerifyUpload(tokenString, storageKey string) (*models.UploadClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	tok, err := jwt.ParseSigned(tokenString, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &models.UploadClaims{}
	if err := tok.Claims(s.secret, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	now := time.Now().Unix()
	if claims.ExpiresAt > 0 && claims.ExpiresAt < now {
		return nil, ErrTokenExpired
	}
	if claims.IssuedAt > 0 && claims.IssuedAt > now+60 {
		return nil, ErrTokenNotYetValid
	}
	if claims.StorageKey != storageKey {
		return nil, ErrWrongStorageKey
	}
	return claims, nil
}
