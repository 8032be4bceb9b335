package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// The repository surfaces exactly three error kinds. Callers branch with
// errors.Is and never inspect driver errors directly.
var (
	// ErrNotFound means an id, slug or username did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint was violated (e.g. a
	// duplicate follow edge).
	ErrConflict = errors.New("conflict")
	// ErrUnavailable means the storage backend failed.
	ErrUnavailable = errors.New("storage unavailable")
)

// wrap classifies a gorm/driver error into the repository taxonomy.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKey(err) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %v: %w", op, err, ErrUnavailable)
}

// isDuplicateKey matches duplicate-key messages from drivers that do not
// translate to gorm.ErrDuplicatedKey (mysql, sqlite).
func isDuplicateKey(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
