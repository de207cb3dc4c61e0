package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tg-auth/internal/domain"
	"tg-auth/internal/repository"
	"tg-auth/internal/service"
	"tg-auth/internal/telegram"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "0123456789abcdef0123456789abcdef"

// stubStore es un repository.Store en memoria para los tests de handlers.
type stubStore struct {
	mu      sync.Mutex
	tokens  map[string]domain.AuthToken
	users   map[string]domain.User
	byTg    map[string]string
	refresh map[string]domain.RefreshToken
}

func newStubStore() *stubStore {
	return &stubStore{
		tokens:  make(map[string]domain.AuthToken),
		users:   make(map[string]domain.User),
		byTg:    make(map[string]string),
		refresh: make(map[string]domain.RefreshToken),
	}
}

func (s *stubStore) Users() repository.UserRepository                 { return (*stubUserRepo)(s) }
func (s *stubStore) AuthTokens() repository.AuthTokenRepository       { return (*stubAuthTokenRepo)(s) }
func (s *stubStore) RefreshTokens() repository.RefreshTokenRepository { return (*stubRefreshRepo)(s) }

func (s *stubStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

func (s *stubStore) expireToken(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.tokens[fingerprint]
	token.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	s.tokens[fingerprint] = token
}

func (s *stubStore) expireRefresh(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.refresh[fingerprint]
	token.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	s.refresh[fingerprint] = token
}

type stubAuthTokenRepo stubStore

func (r *stubAuthTokenRepo) Create(_ context.Context, token domain.AuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token.Fingerprint]; ok {
		return repository.ErrFingerprintConflict
	}
	r.tokens[token.Fingerprint] = token
	return nil
}

func (r *stubAuthTokenRepo) GetByFingerprint(_ context.Context, fingerprint string) (domain.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[fingerprint]
	if !ok {
		return domain.AuthToken{}, pgx.ErrNoRows
	}
	return token, nil
}

func (r *stubAuthTokenRepo) Bind(_ context.Context, fingerprint string, profile domain.TelegramProfile) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[fingerprint]
	if !ok || token.Used {
		return false, nil
	}
	token.TelegramID = profile.TelegramID
	token.Username = profile.Username
	token.FirstName = profile.FirstName
	token.LastName = profile.LastName
	token.PhotoURL = profile.PhotoURL
	r.tokens[fingerprint] = token
	return true, nil
}

func (r *stubAuthTokenRepo) MarkUsed(_ context.Context, fingerprint string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[fingerprint]
	if !ok || token.Used {
		return false, nil
	}
	token.Used = true
	r.tokens[fingerprint] = token
	return true, nil
}

func (r *stubAuthTokenRepo) DeleteExpired(_ context.Context) error { return nil }

type stubUserRepo stubStore

func (r *stubUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r *stubUserRepo) UpsertByTelegramID(_ context.Context, profile domain.TelegramProfile) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byTg[profile.TelegramID]; ok {
		user := r.users[id]
		user.Name = profile.DisplayName()
		if profile.PhotoURL != nil {
			user.AvatarURL = profile.PhotoURL
		}
		r.users[id] = user
		return user, nil
	}
	user := domain.User{
		ID:         uuid.NewString(),
		Name:       profile.DisplayName(),
		AvatarURL:  profile.PhotoURL,
		TelegramID: profile.TelegramID,
	}
	r.users[user.ID] = user
	r.byTg[user.TelegramID] = user.ID
	return user, nil
}

type stubRefreshRepo stubStore

func (r *stubRefreshRepo) Create(_ context.Context, token domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh[token.Fingerprint] = token
	return nil
}

func (r *stubRefreshRepo) FindValid(_ context.Context, fingerprint string) (domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.refresh[fingerprint]
	if !ok || time.Now().UTC().After(token.ExpiresAt.UTC()) {
		return domain.RefreshToken{}, pgx.ErrNoRows
	}
	return token, nil
}

func (r *stubRefreshRepo) Delete(_ context.Context, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refresh, fingerprint)
	return nil
}

func (r *stubRefreshRepo) DeleteExpired(_ context.Context) error { return nil }

// testEnv agrupa el router montado completo y las piezas que los tests
// manipulan directamente.
type testEnv struct {
	router  *gin.Engine
	store   *stubStore
	gateway *telegram.Mock
	tokens  *service.AuthTokenService
}

func newTestEnv(t *testing.T, webhookSecret string) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	store := newStubStore()
	gateway := &telegram.Mock{MessageID: 77}

	jwtSvc, err := service.NewJWTService(testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("new jwt service: %v", err)
	}
	tokens := service.NewAuthTokenService(logger, store, 5*time.Minute)
	sessions := service.NewSessionService(logger, store, jwtSvc, 30*24*time.Hour)
	webhooks := service.NewWebhookService(logger, tokens, gateway, "https://example.com", nil)

	router := NewRouter(logger, "*",
		NewAuthHandler(logger, tokens, sessions),
		NewNotifyHandler(logger, gateway, "999"),
		NewWebhookHandler(logger, webhooks, webhookSecret),
	)

	return &testEnv{router: router, store: store, gateway: gateway, tokens: tokens}
}

// post ejecuta un POST con body JSON y decodifica la respuesta en un mapa.
func (e *testEnv) post(t *testing.T, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	resp := make(map[string]any)
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, resp
}

// newPreflight arma una request OPTIONS y su recorder.
func newPreflight(path string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodOptions, path, nil)
	req.Header.Set("Origin", "https://example.com")
	return req, httptest.NewRecorder()
}

// issueToken crea un token de login vinculado listo para canjear.
func (e *testEnv) issueToken(t *testing.T) string {
	t.Helper()
	profile := domain.NewTelegramProfile("42", "jdoe", "John", "Doe", "")
	plaintext, err := e.tokens.Create(context.Background(), &profile)
	if err != nil {
		t.Fatalf("create auth token: %v", err)
	}
	return plaintext
}
