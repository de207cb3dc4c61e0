package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService emite y valida access tokens firmados. Los refresh tokens no son
// JWT: son opacos y viven hasheados en la base.
type JWTService struct {
	secret    []byte
	accessTTL time.Duration
	issuer    string
}

type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
	// ErrSecretTooShort es un error de configuración del servidor, nunca un
	// error del cliente.
	ErrSecretTooShort = errors.New("jwt secret too short")
)

// minSecretBytes es la longitud mínima aceptada para la clave HS256.
const minSecretBytes = 32

func NewJWTService(secret string, accessTTL time.Duration) (*JWTService, error) {
	if len(secret) < minSecretBytes {
		return nil, ErrSecretTooShort
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &JWTService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		issuer:    "tg-auth",
	}, nil
}

// AccessTTL devuelve la vigencia del access token.
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}

// MintAccess firma un access token de corta vida para el usuario.
func (s *JWTService) MintAccess(userID string) (string, error) {
	if len(s.secret) < minSecretBytes {
		return "", ErrSecretTooShort
	}
	now := time.Now().UTC()
	claims := Claims{
		UserID:    userID,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseAccess valida firma, expiración e issuer y devuelve los claims.
func (s *JWTService) ParseAccess(accessToken string) (Claims, error) {
	if strings.TrimSpace(accessToken) == "" {
		return Claims{}, ErrJWTInvalid
	}
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(accessToken, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	if claims.TokenType != "access" || !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" {
		return false
	}
	if claims.Subject != claims.UserID {
		return false
	}
	return claims.Issuer == s.issuer
}
