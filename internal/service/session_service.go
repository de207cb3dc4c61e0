package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tg-auth/internal/domain"
	"tg-auth/internal/repository"
)

// SessionService emite y renueva pares de sesión. El refresh token no rota:
// el mismo token opaco sigue válido hasta su expiración o logout explícito,
// igual que el esquema original.
type SessionService struct {
	logger     *zap.Logger
	store      repository.Store
	jwt        *JWTService
	refreshTTL time.Duration
}

// ErrRefreshInvalid cubre por igual tokens inexistentes, vencidos y
// revocados, y usuarios desaparecidos; no se distinguen para evitar
// enumeración.
var ErrRefreshInvalid = errors.New("invalid or expired refresh token")

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func NewSessionService(logger *zap.Logger, store repository.Store, jwtSvc *JWTService, refreshTTL time.Duration) *SessionService {
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &SessionService{
		logger:     logger,
		store:      store,
		jwt:        jwtSvc,
		refreshTTL: refreshTTL,
	}
}

// Issue acuña el access token y persiste un refresh token nuevo. El texto
// plano del refresh se devuelve esta única vez.
func (s *SessionService) Issue(ctx context.Context, user domain.User) (TokenPair, error) {
	access, err := s.jwt.MintAccess(user.ID)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := GenerateOpaqueToken(RefreshTokenBytes)
	if err != nil {
		return TokenPair{}, err
	}
	token := domain.RefreshToken{
		Fingerprint: Fingerprint(refresh),
		UserID:      user.ID,
		ExpiresAt:   time.Now().UTC().Add(s.refreshTTL),
	}
	if err := s.store.RefreshTokens().Create(ctx, token); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwt.AccessTTL().Seconds()),
	}, nil
}

// Refresh acuña un access token nuevo contra un refresh token vigente.
func (s *SessionService) Refresh(ctx context.Context, plaintext string) (string, domain.User, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", domain.User{}, ErrRefreshInvalid
	}

	token, err := s.store.RefreshTokens().FindValid(ctx, Fingerprint(plaintext))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.User{}, ErrRefreshInvalid
		}
		return "", domain.User{}, err
	}

	user, err := s.store.Users().GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.User{}, ErrRefreshInvalid
		}
		return "", domain.User{}, err
	}

	access, err := s.jwt.MintAccess(user.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	return access, user, nil
}

// Revoke borra el refresh token si existe. Logout es idempotente: la
// ausencia no es un error.
func (s *SessionService) Revoke(ctx context.Context, plaintext string) error {
	if strings.TrimSpace(plaintext) == "" {
		return nil
	}
	return s.store.RefreshTokens().Delete(ctx, Fingerprint(plaintext))
}

// Cleanup barre refresh tokens vencidos.
func (s *SessionService) Cleanup(ctx context.Context) {
	if err := s.store.RefreshTokens().DeleteExpired(ctx); err != nil {
		s.logger.Warn("refresh token cleanup failed", zap.Error(err))
	}
}

// ExpiresIn expone la vigencia del access token en segundos para las
// respuestas HTTP.
func (s *SessionService) ExpiresIn() int64 {
	return int64(s.jwt.AccessTTL().Seconds())
}
