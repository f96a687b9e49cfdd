// Package crypto seals stored values with AES-256-GCM.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// sealedPrefix marks ciphertext so values written before a key was
// configured can still be read.
var sealedPrefix = []byte("zpenc1:")

var ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")

type Service struct {
	aead cipher.AEAD
}

// New accepts a 32 byte key as hex, base64 or raw text. An empty key yields
// a pass-through service.
func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	decoded := decodeKey(key)
	if len(decoded) != 32 {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must be 32 bytes after decoding")
	}
	block, err := aes.NewCipher(decoded)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Service{aead: gcm}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.aead != nil
}

func (s *Service) Encrypt(plain []byte) ([]byte, error) {
	if !s.Configured() || len(plain) == 0 {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(sealedPrefix)+len(nonce)+len(plain)+s.aead.Overhead())
	out = append(out, sealedPrefix...)
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plain, nil), nil
}

// Decrypt returns unsealed input unchanged.
func (s *Service) Decrypt(value []byte) ([]byte, error) {
	if !bytes.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	if !s.Configured() {
		return nil, errors.New("crypto: value is encrypted but DATA_ENCRYPTION_KEY is not set")
	}
	sealed := value[len(sealedPrefix):]
	if len(sealed) < s.aead.NonceSize() {
		return nil, ErrCiphertextTooShort
	}
	nonce := sealed[:s.aead.NonceSize()]
	return s.aead.Open(nil, nonce, sealed[s.aead.NonceSize():], nil)
}

func decodeKey(raw string) []byte {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	return []byte(raw)
}
