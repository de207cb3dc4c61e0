package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tg-auth/internal/domain"
	"tg-auth/internal/repository"
)

// AuthTokenService es la máquina de estados del token de un solo uso:
// Unbound → Bound → Redeemed, o Expired por tiempo. El canje es exactamente
// una vez; la garantía la da el compare-and-swap del store, no memoria de
// proceso.
type AuthTokenService struct {
	logger   *zap.Logger
	store    repository.Store
	tokenTTL time.Duration
}

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenUsed     = errors.New("token already used")
	ErrTokenNotBound = errors.New("token not authenticated")
)

func NewAuthTokenService(logger *zap.Logger, store repository.Store, tokenTTL time.Duration) *AuthTokenService {
	if tokenTTL <= 0 {
		tokenTTL = 5 * time.Minute
	}
	return &AuthTokenService{
		logger:   logger,
		store:    store,
		tokenTTL: tokenTTL,
	}
}

// Create genera un token nuevo y guarda solo su fingerprint. Con profile se
// crea ya vinculado (el camino del webhook, donde crear y vincular colapsan
// en un paso); con nil queda pendiente de Bind. Un conflicto de fingerprint
// se propaga, nunca se pisa un registro existente.
func (s *AuthTokenService) Create(ctx context.Context, profile *domain.TelegramProfile) (string, error) {
	plaintext, err := GenerateOpaqueToken(AuthTokenBytes)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	token := domain.AuthToken{
		Fingerprint: Fingerprint(plaintext),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.tokenTTL),
	}
	if profile != nil {
		token.TelegramID = profile.TelegramID
		token.Username = profile.Username
		token.FirstName = profile.FirstName
		token.LastName = profile.LastName
		token.PhotoURL = profile.PhotoURL
	}

	if err := s.store.AuthTokens().Create(ctx, token); err != nil {
		return "", err
	}
	return plaintext, nil
}

// Bind adjunta la identidad de Telegram a un token creado sin vincular.
// Nunca después de used = true.
func (s *AuthTokenService) Bind(ctx context.Context, plaintext string, profile domain.TelegramProfile) error {
	fingerprint := Fingerprint(plaintext)
	ok, err := s.store.AuthTokens().Bind(ctx, fingerprint, profile)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := s.store.AuthTokens().GetByFingerprint(ctx, fingerprint); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTokenNotFound
		}
		return err
	}
	return ErrTokenUsed
}

// Redeem canjea el token exactamente una vez y devuelve el usuario creado o
// actualizado. Corre dentro de una transacción del store; el flip de used es
// una sola sentencia condicional, y cero filas afectadas significa que otro
// canje concurrente ganó aunque la lectura inicial se viera válida.
func (s *AuthTokenService) Redeem(ctx context.Context, plaintext string) (domain.User, error) {
	fingerprint := Fingerprint(plaintext)

	var user domain.User
	err := s.store.InTx(ctx, func(st repository.Store) error {
		token, err := st.AuthTokens().GetByFingerprint(ctx, fingerprint)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTokenNotFound
			}
			return err
		}
		if token.ExpiredAt(time.Now()) {
			return ErrTokenExpired
		}
		if token.Used {
			return ErrTokenUsed
		}
		if !token.Bound() {
			return ErrTokenNotBound
		}

		ok, err := st.AuthTokens().MarkUsed(ctx, fingerprint)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTokenUsed
		}

		user, err = st.Users().UpsertByTelegramID(ctx, token.Profile())
		return err
	})
	return user, err
}

// Cleanup elimina tokens vencidos o ya canjeados fuera de gracia. Se invoca
// de manera oportunista en cada ciclo de request.
func (s *AuthTokenService) Cleanup(ctx context.Context) {
	if err := s.store.AuthTokens().DeleteExpired(ctx); err != nil {
		s.logger.Warn("auth token cleanup failed", zap.Error(err))
	}
}
