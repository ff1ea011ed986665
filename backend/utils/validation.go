package utils

import (
	"errors"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	namePattern     = regexp.MustCompile(`^[a-zA-Z0-9가-힣]{1,20}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9_+.-]+@([a-zA-Z0-9-]+\.)+[a-zA-Z0-9]+$`)
	passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9가-힣]{8,25}$`)
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidationErrors flattens validator errors into field -> failed tag.
func ValidationErrors(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Namespace()] = fe.Tag()
		}
		return out
	}
	if err != nil {
		out["body"] = err.Error()
	}
	return out
}

func IsValidName(name string) bool         { return namePattern.MatchString(name) }
func IsValidEmail(email string) bool       { return emailPattern.MatchString(email) }
func IsValidPassword(password string) bool { return passwordPattern.MatchString(password) }
