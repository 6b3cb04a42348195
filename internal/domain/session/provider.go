package session

import (
	"context"
	"errors"
)

var (
	ErrNotAuthenticated = errors.New("user not authenticated")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidLogin     = errors.New("invalid login")
)

// Provider источник текущего пользователя приложения
type Provider interface {
	CurrentUser(ctx context.Context) (string, error)
}

// Validator проверяет API токен сессии
type Validator interface {
	Validate(ctx context.Context, token string) (string, error)
}
