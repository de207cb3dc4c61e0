package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tg-auth/internal/domain"
	"tg-auth/internal/repository"
)

// mockStore implementa repository.Store en memoria. MarkUsed reproduce la
// semántica compare-and-swap del store real bajo mutex, que es lo que
// ejercitan los tests de canje concurrente.
type mockStore struct {
	tokens  *mockAuthTokenRepo
	users   *mockUserRepo
	refresh *mockRefreshTokenRepo
}

func newMockStore() *mockStore {
	return &mockStore{
		tokens: &mockAuthTokenRepo{items: make(map[string]domain.AuthToken)},
		users: &mockUserRepo{
			byID: make(map[string]domain.User),
			byTg: make(map[string]string),
		},
		refresh: &mockRefreshTokenRepo{items: make(map[string]domain.RefreshToken)},
	}
}

func (m *mockStore) Users() repository.UserRepository                 { return m.users }
func (m *mockStore) AuthTokens() repository.AuthTokenRepository       { return m.tokens }
func (m *mockStore) RefreshTokens() repository.RefreshTokenRepository { return m.refresh }

func (m *mockStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

type mockAuthTokenRepo struct {
	mu    sync.Mutex
	items map[string]domain.AuthToken
}

func (r *mockAuthTokenRepo) Create(_ context.Context, token domain.AuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[token.Fingerprint]; ok {
		return repository.ErrFingerprintConflict
	}
	r.items[token.Fingerprint] = token
	return nil
}

func (r *mockAuthTokenRepo) GetByFingerprint(_ context.Context, fingerprint string) (domain.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.items[fingerprint]
	if !ok {
		return domain.AuthToken{}, pgx.ErrNoRows
	}
	return token, nil
}

func (r *mockAuthTokenRepo) Bind(_ context.Context, fingerprint string, profile domain.TelegramProfile) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.items[fingerprint]
	if !ok || token.Used {
		return false, nil
	}
	token.TelegramID = profile.TelegramID
	token.Username = profile.Username
	token.FirstName = profile.FirstName
	token.LastName = profile.LastName
	token.PhotoURL = profile.PhotoURL
	r.items[fingerprint] = token
	return true, nil
}

func (r *mockAuthTokenRepo) MarkUsed(_ context.Context, fingerprint string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.items[fingerprint]
	if !ok || token.Used {
		return false, nil
	}
	token.Used = true
	r.items[fingerprint] = token
	return true, nil
}

func (r *mockAuthTokenRepo) DeleteExpired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for fp, token := range r.items {
		if now.After(token.ExpiresAt.UTC()) || (token.Used && token.CreatedAt.Before(now.Add(-time.Hour))) {
			delete(r.items, fp)
		}
	}
	return nil
}

// setExpiresAt retrocede el reloj de un token para los tests de expiración.
func (r *mockAuthTokenRepo) setExpiresAt(fingerprint string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token := r.items[fingerprint]
	token.ExpiresAt = expiresAt
	r.items[fingerprint] = token
}

type mockUserRepo struct {
	mu   sync.Mutex
	byID map[string]domain.User
	byTg map[string]string
}

func (r *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r *mockUserRepo) UpsertByTelegramID(_ context.Context, profile domain.TelegramProfile) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byTg[profile.TelegramID]; ok {
		user := r.byID[id]
		user.Name = profile.DisplayName()
		if profile.PhotoURL != nil {
			user.AvatarURL = profile.PhotoURL
		}
		r.byID[id] = user
		return user, nil
	}
	user := domain.User{
		ID:         uuid.NewString(),
		Name:       profile.DisplayName(),
		AvatarURL:  profile.PhotoURL,
		TelegramID: profile.TelegramID,
	}
	r.byID[user.ID] = user
	r.byTg[user.TelegramID] = user.ID
	return user, nil
}

func (r *mockUserRepo) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.byID[id]; ok {
		delete(r.byTg, user.TelegramID)
		delete(r.byID, id)
	}
}

type mockRefreshTokenRepo struct {
	mu    sync.Mutex
	items map[string]domain.RefreshToken
}

func (r *mockRefreshTokenRepo) Create(_ context.Context, token domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[token.Fingerprint] = token
	return nil
}

func (r *mockRefreshTokenRepo) FindValid(_ context.Context, fingerprint string) (domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.items[fingerprint]
	if !ok || time.Now().UTC().After(token.ExpiresAt.UTC()) {
		return domain.RefreshToken{}, pgx.ErrNoRows
	}
	return token, nil
}

func (r *mockRefreshTokenRepo) Delete(_ context.Context, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, fingerprint)
	return nil
}

func (r *mockRefreshTokenRepo) DeleteExpired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for fp, token := range r.items {
		if now.After(token.ExpiresAt.UTC()) {
			delete(r.items, fp)
		}
	}
	return nil
}

func (r *mockRefreshTokenRepo) setExpiresAt(fingerprint string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token := r.items[fingerprint]
	token.ExpiresAt = expiresAt
	r.items[fingerprint] = token
}
