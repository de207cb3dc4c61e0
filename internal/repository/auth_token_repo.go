package repository

import (
	"context"
	"errors"
	"fmt"

	"tg-auth/internal/domain"
)

// ErrFingerprintConflict indica una colisión de fingerprint en el insert.
// Astronómicamente improbable con 32 bytes de entropía, pero nunca se traga.
var ErrFingerprintConflict = errors.New("auth token fingerprint conflict")

// AuthTokenRepository define el contrato de persistencia para tokens de un
// solo uso.
type AuthTokenRepository interface {
	Create(ctx context.Context, token domain.AuthToken) error
	GetByFingerprint(ctx context.Context, fingerprint string) (domain.AuthToken, error)
	Bind(ctx context.Context, fingerprint string, profile domain.TelegramProfile) (bool, error)
	MarkUsed(ctx context.Context, fingerprint string) (bool, error)
	DeleteExpired(ctx context.Context) error
}

// PgAuthTokenRepository implementa AuthTokenRepository usando pgx.
type PgAuthTokenRepository struct {
	db    DB
	table string
}

func NewPgAuthTokenRepository(db DB, schema string) *PgAuthTokenRepository {
	return &PgAuthTokenRepository{db: db, table: tableName(schema, "telegram_auth_tokens")}
}

func (r *PgAuthTokenRepository) Create(ctx context.Context, token domain.AuthToken) error {
	query := fmt.Sprintf(`
		INSERT INTO %s
			(token_hash, telegram_id, telegram_username, telegram_first_name,
			 telegram_last_name, telegram_photo_url, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.table)

	_, err := r.db.Exec(ctx, query,
		token.Fingerprint,
		token.TelegramID,
		token.Username,
		token.FirstName,
		token.LastName,
		token.PhotoURL,
		token.CreatedAt,
		token.ExpiresAt,
		token.Used,
	)
	if isUniqueViolation(err) {
		return ErrFingerprintConflict
	}
	return err
}

func (r *PgAuthTokenRepository) GetByFingerprint(ctx context.Context, fingerprint string) (domain.AuthToken, error) {
	query := fmt.Sprintf(`
		SELECT token_hash, COALESCE(telegram_id, ''), telegram_username,
		       telegram_first_name, telegram_last_name, telegram_photo_url,
		       created_at, expires_at, used
		FROM %s
		WHERE token_hash = $1
	`, r.table)

	var t domain.AuthToken
	err := r.db.QueryRow(ctx, query, fingerprint).Scan(
		&t.Fingerprint,
		&t.TelegramID,
		&t.Username,
		&t.FirstName,
		&t.LastName,
		&t.PhotoURL,
		&t.CreatedAt,
		&t.ExpiresAt,
		&t.Used,
	)
	return t, err
}

// Bind adjunta la identidad de Telegram a un token todavía no usado. Devuelve
// false si ningún row calificó (inexistente o ya usado).
func (r *PgAuthTokenRepository) Bind(ctx context.Context, fingerprint string, profile domain.TelegramProfile) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET telegram_id = $2,
		    telegram_username = $3,
		    telegram_first_name = $4,
		    telegram_last_name = $5,
		    telegram_photo_url = $6
		WHERE token_hash = $1 AND used = FALSE
	`, r.table)

	tag, err := r.db.Exec(ctx, query,
		fingerprint,
		profile.TelegramID,
		profile.Username,
		profile.FirstName,
		profile.LastName,
		profile.PhotoURL,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkUsed es el compare-and-swap de canje: una sola sentencia condicionada a
// used = FALSE. Devuelve false cuando otro canje concurrente ya ganó.
func (r *PgAuthTokenRepository) MarkUsed(ctx context.Context, fingerprint string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET used = TRUE
		WHERE token_hash = $1 AND used = FALSE
	`, r.table)

	tag, err := r.db.Exec(ctx, query, fingerprint)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteExpired elimina tokens vencidos y tokens usados con más de una hora
// de antigüedad. Borrado acotado e idempotente, pensado para correr en cada
// ciclo de request.
func (r *PgAuthTokenRepository) DeleteExpired(ctx context.Context) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE expires_at < now()
		   OR (used = TRUE AND created_at < now() - INTERVAL '1 hour')
	`, r.table)

	_, err := r.db.Exec(ctx, query)
	return err
}
