// Package common defines shared constants and sentinel errors used across
// the memorylocks server layers. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
	ErrorStorage  = errors.New("storage error")

	// Validation errors, detected before any store access.
	ErrorInvalidArgument = errors.New("invalid argument")

	// Transport-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorRateLimited  = errors.New("rate limited")
	ErrorUnsupported  = errors.New("unsupported")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// pgUniqueViolation is the SQLSTATE reported for unique constraint violations.
const pgUniqueViolation = "23505"

// StorageError wraps a failure reported by the backing store. It matches
// ErrorStorage under errors.Is while keeping the driver cause reachable.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "db error: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrorStorage
}

// DBError classifies a driver error: unique violations become ErrorConflict,
// everything else a StorageError.
func DBError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return errors.Join(ErrorConflict, &StorageError{Err: err})
	}
	return &StorageError{Err: err}
}

// InvalidArgument builds a validation error carrying a human-readable reason.
func InvalidArgument(reason string) error {
	return &argumentError{reason: reason}
}

type argumentError struct {
	reason string
}

func (e *argumentError) Error() string {
	return e.reason
}

func (e *argumentError) Is(target error) bool {
	return target == ErrorInvalidArgument
}
