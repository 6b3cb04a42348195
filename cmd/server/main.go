package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/exp/slog"

	"tracker/internal/app/client"
	"tracker/internal/app/client/config"
	"tracker/internal/app/server/api"
	"tracker/internal/utils/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()
	log := logger.NewWithLevel(cfg.Env, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("Сервер остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.RequireTraccar(); err != nil {
		return err
	}

	ctx := context.Background()

	app, err := client.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Ошибка завершения", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.API.Address,
		Handler:           api.New(app.Devices(), app.Sessions(), app.Store(), log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return app.Run(ctx, serve(srv, log))
}

// serve HTTP сервер локального API, останавливается вместе с приложением
func serve(srv *http.Server, log *slog.Logger) client.Worker {
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			log.Info("API запущен", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("ошибка HTTP сервера: %w", err)
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ошибка остановки HTTP сервера: %w", err)
		}
		log.Info("API остановлен")
		return nil
	}
}
