package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-recovery-api/internal/domain"
	"golang.org/x/crypto/hkdf"
)

const keyInfo = "password-recovery-token/v1"

// Codec seals and opens opaque recovery tokens with AES-256-GCM.
// The AES key is derived from the process-wide secret with HKDF-SHA256.
// A Codec is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a non-empty secret.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// Seal encrypts c and returns the URL-safe serialized token.
func (c *Codec) Seal(claims domain.ResetClaims) (string, error) {
	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts and parses a token. Every failure wraps domain.ErrMalformedToken;
// a missing or unrecognised channel wraps domain.ErrUnknownChannel.
func (c *Codec) Open(tok string) (domain.ResetClaims, error) {
	var claims domain.ResetClaims
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return claims, fmt.Errorf("decode token: %w", domain.ErrMalformedToken)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return claims, fmt.Errorf("token too short: %w", domain.ErrMalformedToken)
	}
	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return claims, fmt.Errorf("decrypt token: %w", domain.ErrMalformedToken)
	}

	var wire struct {
		SubjectID  string `json:"_id"`
		Type       string `json:"type"`
		Expiration *int64 `json:"expiration"`
		TokenID    string `json:"token_id"`
	}
	if err := json.Unmarshal(plaintext, &wire); err != nil {
		return claims, fmt.Errorf("parse token: %w", domain.ErrMalformedToken)
	}
	if wire.SubjectID == "" {
		return claims, fmt.Errorf("token has no subject: %w", domain.ErrMalformedToken)
	}
	ch, err := domain.ParseChannel(wire.Type)
	if err != nil {
		return claims, err
	}
	return domain.ResetClaims{
		SubjectID:  wire.SubjectID,
		Channel:    ch,
		Expiration: wire.Expiration,
		TokenID:    wire.TokenID,
	}, nil
}
