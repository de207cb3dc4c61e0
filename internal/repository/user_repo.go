package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tg-auth/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	UpsertByTelegramID(ctx context.Context, profile domain.TelegramProfile) (domain.User, error)
}

// PgUserRepository implementa UserRepository usando pgx.
type PgUserRepository struct {
	db    DB
	table string
}

func NewPgUserRepository(db DB, schema string) *PgUserRepository {
	return &PgUserRepository{db: db, table: tableName(schema, "users")}
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := fmt.Sprintf(`
		SELECT id, email, name, avatar_url, telegram_id
		FROM %s
		WHERE id = $1
	`, r.table)

	var u domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.AvatarURL,
		&u.TelegramID,
	)
	return u, err
}

// UpsertByTelegramID crea el usuario en el primer canje o actualiza el
// existente. COALESCE evita pisar name/avatar con null en canjes posteriores;
// last_login_at se actualiza siempre.
func (r *PgUserRepository) UpsertByTelegramID(ctx context.Context, profile domain.TelegramProfile) (domain.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, telegram_id, name, avatar_url, created_at, updated_at, last_login_at)
		VALUES ($1, $2, $3, $4, now(), now(), now())
		ON CONFLICT (telegram_id) DO UPDATE
		SET name          = COALESCE(EXCLUDED.name, %s.name),
		    avatar_url    = COALESCE(EXCLUDED.avatar_url, %s.avatar_url),
		    last_login_at = now(),
		    updated_at    = now()
		RETURNING id, email, name, avatar_url, telegram_id
	`, r.table, r.table, r.table)

	var u domain.User
	err := r.db.QueryRow(ctx, query,
		uuid.NewString(),
		profile.TelegramID,
		profile.DisplayName(),
		profile.PhotoURL,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.AvatarURL,
		&u.TelegramID,
	)
	return u, err
}
