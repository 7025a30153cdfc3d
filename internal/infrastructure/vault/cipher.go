// Package vault cifra en reposo los secretos del emisor (PFX, contraseña del PFX y clave SOL).
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// ErrDecrypt el texto cifrado fue alterado o la llave no corresponde.
var ErrDecrypt = errors.New("vault: no se pudo descifrar")

// Cipher AES-256-GCM con llave derivada por PBKDF2. Formato: nonce || ciphertext.
type Cipher struct {
	gcm cipher.AEAD
}

// New deriva la llave a partir de la passphrase configurada (ENCRYPTION_KEY).
func New(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, errors.New("vault: la llave de cifrado no puede estar vacía")
	}
	dk := pbkdf2.Key([]byte(passphrase), nil, 4096, 32, sha1.New)

	block, err := aes.NewCipher(dk)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{gcm: gcm}, nil
}

// Encrypt cifra plaintext con un nonce aleatorio antepuesto.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("vault: generar nonce: %w", err)
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+c.gcm.Overhead())
	out = append(out, nonce...)
	return c.gcm.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt revierte Encrypt. Devuelve ErrDecrypt si los datos no autentican.
func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	n := c.gcm.NonceSize()
	if len(data) < n+c.gcm.Overhead() {
		return nil, fmt.Errorf("%w: datos demasiado cortos", ErrDecrypt)
	}
	plain, err := c.gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plain, nil
}

// EncryptString atajo para contraseñas.
func (c *Cipher) EncryptString(s string) ([]byte, error) {
	return c.Encrypt([]byte(s))
}

// DecryptString atajo para contraseñas.
func (c *Cipher) DecryptString(data []byte) (string, error) {
	b, err := c.Decrypt(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
