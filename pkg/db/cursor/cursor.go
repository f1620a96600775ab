// Package cursor encodes signed, opaque keyset positions for paginated
// listings ordered by (created_at DESC, id DESC).
package cursor

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidFormat    = errors.New("invalid cursor format")
	ErrInvalidSignature = errors.New("invalid cursor signature")
)

type Position struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

type Signer struct {
	secret []byte
}

// NewSigner signs with secret. An empty secret gets a random per-process
// key, so cursors do not survive a restart.
func NewSigner(secret string) *Signer {
	if secret != "" {
		return &Signer{secret: []byte(secret)}
	}

	key := make([]byte, 32)
	rand.Read(key)

	return &Signer{secret: key}
}

func (s *Signer) Encode(position Position) string {
	payload, _ := json.Marshal(position)
	encoded := base64.RawURLEncoding.EncodeToString(payload)

	return encoded + "." + s.sign(encoded)
}

func (s *Signer) Decode(token string) (Position, error) {
	encoded, signature, found := strings.Cut(token, ".")

	if !found || encoded == "" {
		return Position{}, ErrInvalidFormat
	}

	if !hmac.Equal([]byte(signature), []byte(s.sign(encoded))) {
		return Position{}, ErrInvalidSignature
	}

	decoded, err := base64.RawURLEncoding.DecodeString(encoded)

	if err != nil {
		return Position{}, ErrInvalidFormat
	}

	var position Position

	if err := json.Unmarshal(decoded, &position); err != nil || position.ID == "" {
		return Position{}, ErrInvalidFormat
	}

	return position, nil
}

func (s *Signer) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
