package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"tracker/internal/domain/device"
	"tracker/internal/domain/session"
)

type Auth struct {
	session session.Validator
	log     *slog.Logger
}

func New(session session.Validator, log *slog.Logger) *Auth {
	return &Auth{
		session: session,
		log:     log.With(slog.String("component", "auth_middleware")),
	}
}

type contextKey string

const LoginKey contextKey = "login"

// Middleware проверяет Bearer токен текущей сессии
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token, ok := strings.CutPrefix(ctx.Header("Authorization"), "Bearer ")
		if !ok || token == "" {
			a.log.Warn("Запрос без Bearer токена", "path", ctx.URL().Path)
			a.unauthorized(ctx)
			return
		}

		login, err := a.session.Validate(ctx.Context(), token)
		if err != nil {
			a.log.Warn("Недействительный токен", "path", ctx.URL().Path, "error", err)
			a.unauthorized(ctx)
			return
		}

		newCtx := context.WithValue(ctx.Context(), LoginKey, login)
		next(huma.WithContext(ctx, newCtx))
	}
}

func (a *Auth) unauthorized(ctx huma.Context) {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(http.StatusUnauthorized)

	body := device.Result[any]{Error: "unauthorized"}
	if err := json.NewEncoder(ctx.BodyWriter()).Encode(body); err != nil {
		a.log.Error("Ошибка записи ответа", "error", err)
	}
}

func GetLogin(ctx context.Context) (string, bool) {
	login, ok := ctx.Value(LoginKey).(string)
	return login, ok
}
