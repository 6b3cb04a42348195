package postgres

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"tracker/internal/domain/device"
	"tracker/internal/infrastructure/storage/storagetest"
)

// Тест запускается только при наличии тестовой базы
func TestStorage_Contract(t *testing.T) {
	uri := os.Getenv("TEST_DATABASE_URI")
	if uri == "" {
		t.Skip("TEST_DATABASE_URI не задан")
	}

	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(ctx, uri, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	storagetest.Run(t, func(t *testing.T) device.Repository {
		_, err := s.Pool().Exec(ctx, `TRUNCATE positions, devices RESTART IDENTITY`)
		require.NoError(t, err)
		return s
	})
}
