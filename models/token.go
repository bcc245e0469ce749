package models

// UploadClaims is the signed payload of a local-backend upload credential.
// The token is the only thing granting write access to a storage key, so the
// key is pinned inside it; expiry is the only safeguard against reuse.
type UploadClaims struct {
	Issuer     string `json:"iss"`
	Subject    string `json:"sub"` // creator id
	IssuedAt   int64  `json:"iat"`
	ExpiresAt  int64  `json:"exp"`
	StorageKey string `json:"storageKey"`
}

// UploadCredential is handed to the client at authorization time and grants
// a short-lived, scoped write to exactly one storage key.
type UploadCredential struct {
	// URL the client PUTs the file bytes to. For cloud backends this is a
	// presigned URL; for the local backend it targets /blob on this server.
	URL string `json:"url"`
	// Token authenticates local-backend uploads; empty for presigned URLs.
	Token string `json:"token,omitempty"`
	// ExpiresAt is the unix timestamp after which the credential is useless.
	ExpiresAt int64 `json:"expiresAt"`
}

// Rendition is one encoded variant of a video at a specific
// resolution/bitrate, part of the ladder submitted to the external
// transcoder.
type Rendition struct {
	Name         string `json:"name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	BitrateKbps  int    `json:"bitrateKbps"`
	AudioBitrate int    `json:"audioBitrateKbps,omitempty"`
}

// DefaultRenditionLadder is the three-tier output ladder submitted with
// every external transcode request.
func DefaultRenditionLadder() []Rendition {
	return []Rendition{
		{Name: "1080p", Width: 1920, Height: 1080, BitrateKbps: 6000, AudioBitrate: 192},
		{Name: "720p", Width: 1280, Height: 720, BitrateKbps: 3000, AudioBitrate: 128},
		{Name: "480p", Width: 854, Height: 480, BitrateKbps: 1200, AudioBitrate: 96},
	}
}
