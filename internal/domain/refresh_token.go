package domain

import "time"

// RefreshToken es la credencial de larga vida almacenada hasheada. El texto
// plano se entrega al cliente una sola vez, al emitirla.
type RefreshToken struct {
	Fingerprint string
	UserID      string
	ExpiresAt   time.Time
}
