package session

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	MinLoginLen = 3
	MaxLoginLen = 32
)

// LoginRequest входные данные входа. Длина считается в символах.
type LoginRequest struct {
	Login string `validate:"required,min=3,max=32,login_chars"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("login_chars", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' && r != '@' {
				return false
			}
		}
		return true
	})
	return v
}

// ValidateLogin валидирует логин
func ValidateLogin(login string) error {
	err := validate.Struct(LoginRequest{Login: login})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidLogin, err)
	}

	switch fieldErrs[0].Tag() {
	case "required", "min":
		return fmt.Errorf("%w: login must be at least %d characters", ErrInvalidLogin, MinLoginLen)
	case "max":
		return fmt.Errorf("%w: login must be at most %d characters", ErrInvalidLogin, MaxLoginLen)
	default:
		return fmt.Errorf("%w: login can only contain letters, digits, '_', '-', '.', '@'", ErrInvalidLogin)
	}
}
