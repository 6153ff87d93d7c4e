// Package secrets encrypts tenant-supplied carrier auth tokens at rest.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"go.uber.org/zap"
)

// Codec performs authenticated symmetric encryption with AES-256-GCM. The
// wire format is three colon-separated standard-base64 segments:
// nonce:tag:payload. Values that do not match this shape are treated as
// legacy plaintext and passed through untouched, so rows written before
// encryption was enabled keep working.
type Codec struct {
	key []byte
	log *zap.Logger
}

// NewCodec derives a fixed-length key by hashing the configured secret, so
// operators can supply a secret of any length.
func NewCodec(secret string, log *zap.Logger) *Codec {
	sum := sha256.Sum256([]byte(secret))
	return &Codec{
		key: sum[:],
		log: log.Named("secrets"),
	}
}

// Encrypt seals plaintext with a fresh random nonce. Encrypting the same
// value twice yields different ciphertexts. Empty input returns empty.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	tagStart := len(sealed) - gcm.Overhead()
	payload := sealed[:tagStart]
	tag := sealed[tagStart:]

	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(payload),
	}, ":"), nil
}

// Decrypt reverses Encrypt. Input that does not look like an encrypted value
// is returned unchanged (legacy plaintext fallback). Decryption failure under
// the expected shape, for example after an incompatible key rotation, also
// falls back to returning the input so callers never lose the stored value.
func (c *Codec) Decrypt(value string) string {
	if value == "" {
		return ""
	}

	nonce, tag, payload, ok := splitSegments(value)
	if !ok {
		return value
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		c.log.Warn("cipher init failed, returning raw value", zap.Error(err))
		return value
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		c.log.Warn("gcm init failed, returning raw value", zap.Error(err))
		return value
	}
	if len(nonce) != gcm.NonceSize() || len(tag) != gcm.Overhead() {
		return value
	}

	plaintext, err := gcm.Open(nil, nonce, append(payload, tag...), nil)
	if err != nil {
		c.log.Warn("decrypt failed, returning raw value", zap.Error(err))
		return value
	}
	return string(plaintext)
}

func splitSegments(value string) (nonce, tag, payload []byte, ok bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return nil, nil, nil, false
	}

	decoded := make([][]byte, 3)
	for i, part := range parts {
		raw, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			return nil, nil, nil, false
		}
		decoded[i] = raw
	}
	return decoded[0], decoded[1], decoded[2], true
}
