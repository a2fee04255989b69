// Package secretbox sella valores sensibles (fecha de nacimiento, SSN) antes
// de guardarlos. Usa XChaCha20-Poly1305 con una clave explícita de 32 bytes.
package secretbox

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// Prefix identifica un valor sellado; lo que no lo tiene es texto plano.
	Prefix = "sb1:"
	sep    = "|" // nonce|ciphertext (ambos en base64)
)

var ErrFormat = errors.New("secretbox: formato inválido, esperado sb1:base64(nonce)|base64(ciphertext)")

// Box cifra y descifra con una clave fija.
type Box struct {
	aead cipher.AEAD
}

// New acepta la clave en base64 (con o sin padding), hex de 64 caracteres o
// 32 bytes crudos.
func New(key string) (*Box, error) {
	k, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305.NewX: %w", err)
	}
	return &Box{aead: aead}, nil
}

func ParseKey(key string) ([]byte, error) {
	// 32 bytes sin recortar es siempre clave cruda: base64 y hex de 32 bytes
	// son más largos. Los bordes pueden ser bytes de espacio.
	if len(key) == chacha20poly1305.KeySize {
		return []byte(key), nil
	}
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return nil, errors.New("secretbox: clave vacía; genere una con: openssl rand -base64 32")
	}
	if b, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(trimmed); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	if len(trimmed) == 2*chacha20poly1305.KeySize {
		if h, err := hex.DecodeString(trimmed); err == nil {
			return h, nil
		}
	}
	return nil, fmt.Errorf("secretbox: clave inválida: %d bytes (requiere %d)", len(key), chacha20poly1305.KeySize)
}

// Seal devuelve Prefix + base64(nonce)|base64(ciphertext). El string vacío
// queda vacío.
func (b *Box) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plain), nil)
	return Prefix + base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open invierte Seal. Un valor sin Prefix se devuelve tal cual: son filas
// escritas antes de configurar la clave.
func (b *Box) Open(sealed string) (string, error) {
	if !IsSealed(sealed) {
		return sealed, nil
	}
	parts := strings.Split(strings.TrimPrefix(sealed, Prefix), sep)
	if len(parts) != 2 {
		return "", ErrFormat
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != b.aead.NonceSize() {
		return "", fmt.Errorf("nonce inválido: esperado %d bytes, obtuvo %d", b.aead.NonceSize(), len(nonce))
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("auth/decrypt: %w", err)
	}
	return string(pt), nil
}

func IsSealed(s string) bool { return strings.HasPrefix(s, Prefix) }
