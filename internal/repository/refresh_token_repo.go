package repository

import (
	"context"
	"fmt"

	"tg-auth/internal/domain"
)

// RefreshTokenRepository define el contrato de persistencia para refresh
// tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token domain.RefreshToken) error
	FindValid(ctx context.Context, fingerprint string) (domain.RefreshToken, error)
	Delete(ctx context.Context, fingerprint string) error
	DeleteExpired(ctx context.Context) error
}

// PgRefreshTokenRepository implementa RefreshTokenRepository usando pgx.
type PgRefreshTokenRepository struct {
	db    DB
	table string
}

func NewPgRefreshTokenRepository(db DB, schema string) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{db: db, table: tableName(schema, "refresh_tokens")}
}

func (r *PgRefreshTokenRepository) Create(ctx context.Context, token domain.RefreshToken) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, r.table)

	_, err := r.db.Exec(ctx, query, token.Fingerprint, token.UserID, token.ExpiresAt)
	return err
}

// FindValid devuelve el token solo si no está vencido. Tokens inexistentes y
// vencidos son indistinguibles para el caller.
func (r *PgRefreshTokenRepository) FindValid(ctx context.Context, fingerprint string) (domain.RefreshToken, error) {
	query := fmt.Sprintf(`
		SELECT token_hash, user_id, expires_at
		FROM %s
		WHERE token_hash = $1 AND expires_at > now()
	`, r.table)

	var t domain.RefreshToken
	err := r.db.QueryRow(ctx, query, fingerprint).Scan(&t.Fingerprint, &t.UserID, &t.ExpiresAt)
	return t, err
}

// Delete borra el token si existe; la ausencia no es un error.
func (r *PgRefreshTokenRepository) Delete(ctx context.Context, fingerprint string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE token_hash = $1
	`, r.table)

	_, err := r.db.Exec(ctx, query, fingerprint)
	return err
}

func (r *PgRefreshTokenRepository) DeleteExpired(ctx context.Context) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE expires_at < now()
	`, r.table)

	_, err := r.db.Exec(ctx, query)
	return err
}
