package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State сохраненная сессия пользователя устройства
type State struct {
	Login      string    `json:"login"`
	TokenHash  string    `json:"token_hash"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

type Repository interface {
	// Load возвращает nil без ошибки, если сессии нет
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context) error
}

// FileRepository хранит сессию в JSON файле в директории конфигурации
type FileRepository struct {
	path string
}

func NewFileRepository(configDir string) *FileRepository {
	return &FileRepository{
		path: filepath.Join(configDir, "session.json"),
	}
}

func (r *FileRepository) Load(_ context.Context) (*State, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("ошибка парсинга сессии: %w", err)
	}

	return &state, nil
}

func (r *FileRepository) Save(_ context.Context, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}

	return os.WriteFile(r.path, data, 0600)
}

func (r *FileRepository) Delete(_ context.Context) error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}
	return nil
}
