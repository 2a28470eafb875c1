// Package fieldcrypt cifra campos de texto livre antes de irem para o banco.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Prefixo dos valores cifrados. Valores sem ele são lidos como texto puro,
// o que permite ligar a cifragem num banco que já tem dados.
const prefix = "enc:v1:"

var ErrInvalidKey = errors.New("chave de cifragem deve ter 32 bytes (base64)")

// Cipher cifra e decifra strings. O valor vazio passa direto.
type Cipher interface {
	Seal(plain string) (string, error)
	Open(stored string) (string, error)
}

// Noop não cifra nada. Usado quando nenhuma chave foi configurada.
type Noop struct{}

func (Noop) Seal(plain string) (string, error)  { return plain, nil }
func (Noop) Open(stored string) (string, error) { return stored, nil }

type aesGCM struct {
	aead cipher.AEAD
}

// New cria um Cipher AES-256-GCM a partir de uma chave em base64.
// Chave vazia devolve Noop.
func New(keyB64 string) (Cipher, error) {
	if keyB64 == "" {
		return Noop{}, nil
	}
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("falha ao criar cifra: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("falha ao criar GCM: %w", err)
	}
	return &aesGCM{aead: aead}, nil
}

func (c *aesGCM) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return prefix + base64.StdEncoding.EncodeToString(out), nil
}

func (c *aesGCM) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, prefix) {
		return stored, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, prefix))
	if err != nil {
		return "", fmt.Errorf("valor cifrado inválido: %w", err)
	}
	n := c.aead.NonceSize()
	if len(raw) < n {
		return "", errors.New("valor cifrado truncado")
	}
	plain, err := c.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", fmt.Errorf("falha ao decifrar: %w", err)
	}
	return string(plain), nil
}
