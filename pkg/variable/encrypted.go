package variable

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new values.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried when decryption with ActiveKey fails, so values
	// written before a key rotation stay readable.
	FallbackKeys [][]byte
}

// EncryptedService seals values with AES-GCM before handing them to the
// wrapped store. Names are stored in clear so List keeps working.
type EncryptedService struct {
	next   Service
	config EncryptionConfig
}

// NewEncrypted wraps next. It fails unless the active key is 32 bytes.
func NewEncrypted(next Service, config EncryptionConfig) (*EncryptedService, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	return &EncryptedService{next: next, config: config}, nil
}

func (s *EncryptedService) Get(ctx context.Context, name string) (string, error) {
	sealed, err := s.next.Get(ctx, name)
	if err != nil {
		return "", err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("variable %s: failed to decode ciphertext base64: %w", name, err)
	}
	plain, err := decryptWithRotation(ciphertext, s.config.ActiveKey, s.config.FallbackKeys)
	if err != nil {
		return "", fmt.Errorf("variable %s: %w", name, err)
	}
	return string(plain), nil
}

func (s *EncryptedService) Set(ctx context.Context, name, value string) error {
	ciphertext, err := encrypt([]byte(value), s.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("variable %s: failed to encrypt: %w", name, err)
	}
	return s.next.Set(ctx, name, base64.StdEncoding.EncodeToString(ciphertext))
}

func (s *EncryptedService) Delete(ctx context.Context, name string) error {
	return s.next.Delete(ctx, name)
}

func (s *EncryptedService) List(ctx context.Context) ([]string, error) {
	return s.next.List(ctx)
}

// Close closes the wrapped store when it holds resources.
func (s *EncryptedService) Close() error {
	if c, ok := s.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
