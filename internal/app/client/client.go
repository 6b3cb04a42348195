package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"

	"golang.org/x/exp/slog"

	"tracker/internal/app/client/config"
	"tracker/internal/domain/device"
	"tracker/internal/domain/session"
	"tracker/internal/infrastructure/storage"
	"tracker/internal/infrastructure/traccar"
)

// Worker фоновая задача, работающая до отмены контекста
type Worker func(ctx context.Context) error

type App struct {
	config   *config.Config
	log      *slog.Logger
	repo     device.Repository
	remote   *traccar.Client
	sessions *session.Service
	devices  *device.Service
	wg       gosync.WaitGroup
	cancel   context.CancelFunc
	mu       gosync.Mutex
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	sessions := session.NewService(session.NewFileRepository(cfg.ConfigDir), log)

	remote := traccar.NewClient(traccar.Config{
		BaseURL:      cfg.Traccar.URL,
		Username:     cfg.Traccar.User,
		Password:     cfg.Traccar.Password,
		Timeout:      cfg.Traccar.Timeout,
		ServerFilter: cfg.Traccar.ServerFilter,
	}, log)

	repo, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.Storage.Driver,
		DataPath:    cfg.Storage.DataPath,
		DatabaseURI: cfg.Storage.DatabaseURI,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	devices := device.NewService(repo, remote, sessions, log, &device.ServiceConfig{
		SyncConcurrency: cfg.Sync.Concurrency,
	})

	return &App{
		config:   cfg,
		log:      log,
		repo:     repo,
		remote:   remote,
		sessions: sessions,
		devices:  devices,
	}, nil
}

func (a *App) Config() *config.Config {
	return a.config
}

// Devices координатор устройств и позиций
func (a *App) Devices() *device.Service {
	return a.devices
}

// Store локальный кэш устройств и позиций
func (a *App) Store() device.Repository {
	return a.repo
}

func (a *App) Sessions() *session.Service {
	return a.sessions
}

// Run запускает автосинхронизацию и фоновые задачи и ждет сигнала завершения
// или отмены ctx. Возвращает первую ошибку фоновой задачи.
func (a *App) Run(ctx context.Context, workers ...Worker) error {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	go a.handleSignals(ctx)

	if res := a.devices.Initialize(ctx); !res.Success {
		return fmt.Errorf("ошибка инициализации: %s", res.Error)
	}

	if a.config.Sync.Interval > 0 {
		if err := a.devices.StartAutoSync(ctx, a.config.Sync.Interval); err != nil {
			return fmt.Errorf("ошибка запуска автосинхронизации: %w", err)
		}
		defer a.devices.StopAutoSync()
	}

	errCh := make(chan error, len(workers))
	for _, w := range workers {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := w(ctx); err != nil {
				errCh <- err
				cancel()
			}
		}()
	}

	a.log.Info("Клиент запущен",
		"server", a.config.Traccar.URL,
		"env", a.config.Env,
		"storage", a.config.Storage.Driver,
		"sync_interval", a.config.Sync.Interval,
	)

	<-ctx.Done()
	a.wg.Wait()
	close(errCh)

	return <-errCh
}

func (a *App) handleSignals(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.log.Info("Получен сигнал завершения", "signal", sig.String())
		a.Shutdown()
	case <-ctx.Done():
	}
}

// Shutdown останавливает Run
func (a *App) Shutdown() {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Close освобождает хранилище
func (a *App) Close() error {
	a.devices.StopAutoSync()
	if err := a.repo.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия хранилища: %w", err)
	}
	a.log.Debug("Клиент завершил работу")
	return nil
}
