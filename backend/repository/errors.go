package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned for every missing row; callers match it with
// errors.Is and read the wrapped message for the entity name.
var ErrNotFound = errors.New("NOT_FOUND")

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
