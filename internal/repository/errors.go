package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound signals that no row matched.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate signals a store-level uniqueness violation on a login key or email.
	ErrDuplicate = errors.New("repository: duplicate principal")
)

// translate maps pgx errors onto the repository sentinels. Uniqueness is enforced by
// the database's unique indexes, not check-then-insert, so concurrent creations with
// the same key cannot both succeed.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
