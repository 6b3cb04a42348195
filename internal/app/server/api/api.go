// GET    /api/v1/health                      # Проверка доступности (публичный)
// GET    /api/v1/devices                     # Устройства с последними позициями (auth)
// POST   /api/v1/devices                     # Добавить устройство (auth)
// DELETE /api/v1/devices/{enteredId}         # Удалить устройство (auth)
// POST   /api/v1/devices/{enteredId}/sync    # Обновить позицию устройства (auth)
// GET    /api/v1/devices/{enteredId}/track   # Трек устройства в GeoJSON (auth)
// POST   /api/v1/sync                        # Синхронизировать все устройства (auth)
// GET    /api/v1/stats                       # Статистика хранилища (auth)
// DELETE /api/v1/data                        # Удалить все данные пользователя (auth)

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	deviceAPI "tracker/internal/app/server/api/http/device"
	healthAPI "tracker/internal/app/server/api/http/health"
	"tracker/internal/app/server/api/http/middleware"
	"tracker/internal/app/server/api/http/middleware/auth"
	"tracker/internal/app/server/api/http/middleware/logger"
	"tracker/internal/domain/device"
	"tracker/internal/domain/session"
)

type Handlers struct {
	Health *healthAPI.Handler
	Device *deviceAPI.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register
func New(devices device.Servicer, sessions session.Validator, store healthAPI.Pinger, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("Tracker API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, config)

	h := handlers(devices, sessions, store, log)
	h.Health.SetupRoutes(API)
	h.Device.SetupRoutes(API)

	return mux
}

func handlers(devices device.Servicer, sessions session.Validator, store healthAPI.Pinger, log *slog.Logger) *Handlers {
	authMW := auth.New(sessions, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(store, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(authMW.Middleware())
	deviceHandler := deviceAPI.NewHandler(devices, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Device: deviceHandler,
	}
}
