package services

import (
	"errors"
	"fmt"
	"strings"

	"classmarket/backend/repository"
	"classmarket/backend/utils"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrKey marks a payload missing a required key.
	ErrKey = errors.New("KEY_ERROR")
	// ErrNotFound covers every referenced row that does not exist.
	ErrNotFound = repository.ErrNotFound
	// ErrForbidden is returned when a draft belongs to another user.
	ErrForbidden  = errors.New("FORBIDDEN")
	ErrInvalid    = errors.New("INVALID_VALUE")
	ErrIncomplete = errors.New("INCOMPLETE_DRAFT")
)

// checkPayload runs struct validation and sorts the failures: a missing
// required field is a key error, anything else an invalid value.
func checkPayload(payload interface{}) error {
	err := utils.Validator().Struct(payload)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var missing, invalid []string
	for _, fe := range ve {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Namespace())
		} else {
			invalid = append(invalid, fe.Namespace()+" "+fe.Tag())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrKey, strings.Join(missing, ", "))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(invalid, ", "))
}
