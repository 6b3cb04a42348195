package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"tracker/internal/app/client/config"
)

func newTestApp(t *testing.T, interval time.Duration) *App {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Env:       config.EnvDev,
		ConfigDir: t.TempDir(),
		Traccar: config.Traccar{
			URL:     srv.URL,
			User:    "admin",
			Timeout: time.Second,
		},
		Storage: config.Storage{Driver: "memory"},
		Sync:    config.Sync{Interval: interval, Concurrency: 2},
	}

	app, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	return app
}

func TestApp_RunUntilCancel(t *testing.T) {
	app := newTestApp(t, 10*time.Millisecond)
	_, err := app.Sessions().Login(context.Background(), "alice")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return app.Devices().GetSyncStats().TotalSyncs > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
	assert.False(t, app.Devices().AutoSyncRunning())
}

func TestApp_WorkerError(t *testing.T) {
	app := newTestApp(t, 0)
	workerErr := errors.New("address already in use")

	err := app.Run(context.Background(), func(ctx context.Context) error {
		return workerErr
	})

	assert.ErrorIs(t, err, workerErr)
}

func TestApp_Shutdown(t *testing.T) {
	app := newTestApp(t, 0)

	done := make(chan error, 1)
	go func() {
		done <- app.Run(context.Background(), func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
	}()

	assert.Eventually(t, func() bool {
		app.mu.Lock()
		defer app.mu.Unlock()
		return app.cancel != nil
	}, time.Second, 5*time.Millisecond)

	app.Shutdown()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run не завершился после Shutdown")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &config.Config{
		ConfigDir: t.TempDir(),
		Storage:   config.Storage{Driver: "mongo"},
		Sync:      config.Sync{Concurrency: 1},
	}

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
