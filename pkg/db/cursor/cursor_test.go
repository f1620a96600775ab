package cursor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor(t *testing.T) {
	signer := NewSigner("test-secret-key-123")

	position := Position{
		CreatedAt: time.Date(2025, 9, 12, 10, 37, 52, 264830000, time.UTC),
		ID:        "0b5c2a8e-todo",
	}

	token := signer.Encode(position)

	decoded, err := signer.Decode(token)

	require.NoError(t, err)
	assert.True(t, decoded.CreatedAt.Equal(position.CreatedAt))
	assert.Equal(t, position.ID, decoded.ID)
}

func TestDecodeInvalidCursor(t *testing.T) {
	signer := NewSigner("test-secret-key-123")

	_, err := signer.Decode("invalid-cursor")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	token := signer.Encode(Position{CreatedAt: time.Now(), ID: "a"})

	_, err = NewSigner("another-secret").Decode(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = signer.Decode("eyJpZCI6IiJ9.forged")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestRandomSecretSigners(t *testing.T) {
	a := NewSigner("")
	b := NewSigner("")

	token := a.Encode(Position{CreatedAt: time.Now(), ID: "a"})

	_, err := a.Decode(token)
	assert.NoError(t, err)

	_, err = b.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
