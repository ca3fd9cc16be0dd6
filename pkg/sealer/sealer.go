package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformed = errors.New("malformed token")
	ErrExpired   = errors.New("token expired")
	ErrPurpose   = errors.New("token issued for another purpose")
)

// Claims are the values sealed into an opaque token.
type Claims struct {
	Purpose   string
	Subject   string
	Binding   string
	ExpiresAt time.Time
}

// Sealer produces AES-GCM sealed, URL safe tokens.
type Sealer struct {
	aead cipher.AEAD
	now  func() time.Time
}

func New(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid sealer key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead, now: time.Now}, nil
}

func (s *Sealer) Seal(c Claims) (string, error) {
	for _, part := range []string{c.Purpose, c.Subject, c.Binding} {
		if strings.Contains(part, "|") {
			return "", fmt.Errorf("claim values cannot contain '|'")
		}
	}
	plaintext := []byte(strings.Join([]string{
		c.Purpose,
		c.Subject,
		c.Binding,
		strconv.FormatInt(c.ExpiresAt.Unix(), 10),
	}, "|"))

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// Open decrypts a token, checks it was sealed for purpose and has not expired.
func (s *Sealer) Open(purpose, token string) (Claims, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Claims{}, ErrMalformed
	}

	nonceSize := s.aead.NonceSize()
	if len(data) <= nonceSize {
		return Claims{}, ErrMalformed
	}

	pt, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return Claims{}, ErrMalformed
	}

	parts := strings.Split(string(pt), "|")
	if len(parts) != 4 {
		return Claims{}, ErrMalformed
	}
	expiry, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Claims{}, ErrMalformed
	}

	c := Claims{
		Purpose:   parts[0],
		Subject:   parts[1],
		Binding:   parts[2],
		ExpiresAt: time.Unix(expiry, 0).UTC(),
	}
	if c.Purpose != purpose {
		return Claims{}, ErrPurpose
	}
	if !s.now().Before(c.ExpiresAt) {
		return Claims{}, ErrExpired
	}
	return c, nil
}
