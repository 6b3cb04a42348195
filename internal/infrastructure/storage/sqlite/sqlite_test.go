package sqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"tracker/internal/domain/device"
	"tracker/internal/infrastructure/storage/storagetest"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(filepath.Join(t.TempDir(), "data", "tracker.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStorage_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) device.Repository {
		return newTestStorage(t)
	})
}

func TestStorage_Reopen(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "tracker.db")
	ctx := context.Background()

	s, err := New(path, log)
	require.NoError(t, err)
	_, err = s.SaveDevice(ctx, &device.Device{Owner: "alice", EnteredID: "A", RemoteID: 1})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := New(path, log)
	require.NoError(t, err)
	defer reopened.Close()

	stats, err := reopened.GetStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Devices)
}

func TestStorage_ClosedDatabase(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Close())

	_, err := s.GetUserDevices(context.Background(), "alice")
	assert.Error(t, err)
	assert.Error(t, s.Ping(context.Background()))
}
