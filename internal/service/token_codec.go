package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Entropía por tipo de token: los refresh tokens viven más y valen más.
const (
	AuthTokenBytes    = 32
	RefreshTokenBytes = 48
)

// GenerateOpaqueToken devuelve n bytes de entropía criptográfica codificados
// URL-safe, sin padding.
func GenerateOpaqueToken(n int) (string, error) {
	if n <= 0 {
		n = AuthTokenBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Fingerprint deriva el hash de almacenamiento de un token. Es la única forma
// que se persiste o compara; solo sirve para igualdad.
func Fingerprint(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
