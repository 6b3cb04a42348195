package storage

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"tracker/internal/domain/device"
	"tracker/internal/infrastructure/storage/memory"
	"tracker/internal/infrastructure/storage/postgres"
	"tracker/internal/infrastructure/storage/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Options параметры выбора хранилища
type Options struct {
	Driver      string
	DataPath    string
	DatabaseURI string
}

// Open создает локальный кэш выбранного типа. Если файл SQLite открыть
// не удалось, возвращается хранилище в памяти.
func Open(ctx context.Context, opts Options, log *slog.Logger) (device.Repository, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		repo, err := sqlite.New(opts.DataPath, log)
		if err != nil {
			log.Warn("Не удалось открыть SQLite, данные будут храниться в памяти",
				"path", opts.DataPath,
				"error", err,
			)
			return memory.New(), nil
		}
		log.Debug("Открыто хранилище SQLite", "path", opts.DataPath)
		return repo, nil

	case DriverPostgres:
		repo, err := postgres.New(ctx, opts.DatabaseURI, log)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
		}
		return repo, nil

	case DriverMemory:
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, opts.Driver)
	}
}
