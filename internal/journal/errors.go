package journal

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a referenced trade, tag, custom field or
	// attachment does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for input that cannot be stored as given.
	ErrValidation = errors.New("validation failed")
	// ErrIntegrity is returned when a write would break a uniqueness or
	// reference constraint.
	ErrIntegrity = errors.New("integrity violation")
)

// translate maps store errors onto the package sentinels. Other errors pass
// through unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: duplicate key", ErrIntegrity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: unknown reference", ErrIntegrity)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	}
	return err
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
