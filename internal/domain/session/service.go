package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Provider
	Validator
	Login(ctx context.Context, login string) (string, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (*State, error)
}

// Service сессия единственного пользователя на устройстве
type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Login открывает сессию и возвращает API токен. Токен хранится только в виде хэша.
func (s *Service) Login(ctx context.Context, login string) (string, error) {
	if err := ValidateLogin(login); err != nil {
		return "", err
	}

	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("хэш токена: %w", err)
	}

	state := &State{
		Login:      login,
		TokenHash:  string(hash),
		LoggedInAt: time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, state); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	s.log.Info("Вход выполнен", "login", login)
	return token, nil
}

// Logout закрывает текущую сессию
func (s *Service) Logout(ctx context.Context) error {
	if err := s.repo.Delete(ctx); err != nil {
		return err
	}

	s.log.Info("Сессия закрыта")
	return nil
}

// Status возвращает текущую сессию или ErrNotAuthenticated
func (s *Service) Status(ctx context.Context) (*State, error) {
	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil || state.Login == "" {
		return nil, ErrNotAuthenticated
	}

	return state, nil
}

// CurrentUser возвращает логин текущего пользователя
func (s *Service) CurrentUser(ctx context.Context) (string, error) {
	state, err := s.Status(ctx)
	if err != nil {
		return "", err
	}

	return state.Login, nil
}

// Validate проверяет токен и возвращает логин владельца сессии
func (s *Service) Validate(ctx context.Context, token string) (string, error) {
	state, err := s.Status(ctx)
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(state.TokenHash), []byte(token)); err != nil {
		return "", ErrInvalidToken
	}

	return state.Login, nil
}
