package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when an id or email does not resolve.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a write would duplicate an email.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrStatusGuard is returned when a guarded status update finds the
	// ticket in a status it may not leave.
	ErrStatusGuard = errors.New("ticket status does not permit this change")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// validID filters out ids the uuid column would reject with a syntax error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
