package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB es el subconjunto de pgx que usan los repositorios. Lo satisfacen tanto
// *pgxpool.Pool como pgx.Tx, lo que permite repositorios dentro y fuera de
// una transacción.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store agrupa los repositorios de credenciales y expone el alcance
// transaccional por request: commit al terminar sin error, rollback en
// cualquier otro camino de salida.
type Store interface {
	Users() UserRepository
	AuthTokens() AuthTokenRepository
	RefreshTokens() RefreshTokenRepository
	InTx(ctx context.Context, fn func(Store) error) error
}

// PgStore implementa Store sobre pgx con un prefijo de esquema opcional.
type PgStore struct {
	pool   *pgxpool.Pool
	db     DB
	schema string

	users         *PgUserRepository
	authTokens    *PgAuthTokenRepository
	refreshTokens *PgRefreshTokenRepository
}

// NewPgStore crea un Store sobre el pool. schema namespacea los nombres de
// tabla ("public" por defecto).
func NewPgStore(pool *pgxpool.Pool, schema string) *PgStore {
	s := &PgStore{pool: pool, schema: schema}
	s.init(pool)
	return s
}

func (s *PgStore) init(db DB) {
	s.db = db
	s.users = NewPgUserRepository(db, s.schema)
	s.authTokens = NewPgAuthTokenRepository(db, s.schema)
	s.refreshTokens = NewPgRefreshTokenRepository(db, s.schema)
}

func (s *PgStore) Users() UserRepository                 { return s.users }
func (s *PgStore) AuthTokens() AuthTokenRepository       { return s.authTokens }
func (s *PgStore) RefreshTokens() RefreshTokenRepository { return s.refreshTokens }

// InTx ejecuta fn dentro de una transacción. Llamadas anidadas reutilizan la
// transacción ya abierta.
func (s *PgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	inner := &PgStore{schema: s.schema}
	inner.init(tx)
	if err := fn(inner); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// tableName aplica el prefijo de esquema configurado.
func tableName(schema, table string) string {
	if schema == "" {
		return table
	}
	return fmt.Sprintf("%s.%s", schema, table)
}

// isUniqueViolation detecta el código 23505 de Postgres.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
