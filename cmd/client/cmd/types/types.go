package types

import (
	"context"
	"errors"

	"tracker/internal/app/client"
)

type contextKey string

// ClientAppKey ключ приложения в контексте команды
const ClientAppKey contextKey = "app"

var ErrAppNotInitialized = errors.New("приложение не инициализировано")

func WithApp(ctx context.Context, app *client.App) context.Context {
	return context.WithValue(ctx, ClientAppKey, app)
}

// AppFromContext достает приложение, созданное в PersistentPreRunE
func AppFromContext(ctx context.Context) (*client.App, error) {
	app, ok := ctx.Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, ErrAppNotInitialized
	}
	return app, nil
}
