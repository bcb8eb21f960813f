// Package cipher encrypts stored API keys.
//
// Ciphertexts are produced by gorilla/securecookie: AES in CTR mode with a
// random IV per value, authenticated with HMAC-SHA256. The AES and HMAC keys
// are both derived from one process-wide secret with HKDF, so changing the
// secret makes every stored ciphertext undecryptable.
package cipher

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = "aes-256-ctr"

// valueName binds every ciphertext to its purpose; a value encrypted under
// another name will not decrypt.
const valueName = "rentity.apiKey"

var blockKeySizes = map[string]int{
	"aes-128-ctr": 16,
	"aes-192-ctr": 24,
	"aes-256-ctr": 32,
}

var (
	ErrEmptySecret      = errors.New("cipher: secret must not be empty")
	ErrUnknownAlgorithm = errors.New("cipher: unknown algorithm")
	ErrMalformed        = errors.New("cipher: malformed or foreign ciphertext")
)

// Algorithms lists the accepted algorithm identifiers.
func Algorithms() []string {
	out := make([]string, 0, len(blockKeySizes))
	for k := range blockKeySizes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Cipher is safe for concurrent use.
type Cipher struct {
	codec *securecookie.SecureCookie
}

// New derives keys from secret and returns a Cipher for algorithm
// (one of Algorithms(); empty means DefaultAlgorithm).
func New(secret, algorithm string) (*Cipher, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	algorithm = strings.ToLower(strings.TrimSpace(algorithm))
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	size, ok := blockKeySizes[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	hashKey, err := derive(secret, "rentity/hmac-sha256/"+algorithm, 32)
	if err != nil {
		return nil, err
	}
	blockKey, err := derive(secret, "rentity/"+algorithm, size)
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(0)    // API keys do not expire through the cipher
	codec.MaxLength(0) // no cookie-size limit
	codec.SetSerializer(securecookie.NopEncoder{})
	return &Cipher{codec: codec}, nil
}

func derive(secret, info string, n int) ([]byte, error) {
	key := make([]byte, n)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("cipher: derive key: %w", err)
	}
	return key, nil
}

// Encrypt returns an opaque, URL-safe ciphertext for plaintext. Two calls
// with the same plaintext produce different ciphertexts.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	out, err := c.codec.Encode(valueName, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("cipher: encrypt: %w", err)
	}
	return out, nil
}

// Decrypt reverses Encrypt. It fails with ErrMalformed when ciphertext was
// altered, was produced under a different secret, or is not a ciphertext.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	var out []byte
	if err := c.codec.Decode(valueName, ciphertext, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return string(out), nil
}
