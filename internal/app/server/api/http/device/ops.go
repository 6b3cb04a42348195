package device

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "devices-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/devices",
		Summary:     "Устройства пользователя с последними позициями",
		Description: "При любой ошибке чтения возвращает пустой список с success=true",
		Tags:        []string{"devices"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) addOp() huma.Operation {
	return huma.Operation{
		OperationID: "devices-add",
		Method:      http.MethodPost,
		Path:        "/api/v1/devices",
		Summary:     "Добавить устройство",
		Description: "Ищет устройство на сервере трекинга, сохраняет его и пробует получить первую позицию",
		Tags:        []string{"devices"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) removeOp() huma.Operation {
	return huma.Operation{
		OperationID: "devices-remove",
		Method:      http.MethodDelete,
		Path:        "/api/v1/devices/{enteredId}",
		Summary:     "Удалить устройство и его позиции",
		Tags:        []string{"devices"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) syncOp() huma.Operation {
	return huma.Operation{
		OperationID: "devices-sync",
		Method:      http.MethodPost,
		Path:        "/api/v1/devices/{enteredId}/sync",
		Summary:     "Синхронизировать позицию устройства",
		Tags:        []string{"devices"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) trackOp() huma.Operation {
	return huma.Operation{
		OperationID: "devices-track",
		Method:      http.MethodGet,
		Path:        "/api/v1/devices/{enteredId}/track",
		Summary:     "Маршрут устройства в GeoJSON",
		Tags:        []string{"devices"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) syncAllOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-all",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync",
		Summary:     "Синхронизировать все устройства",
		Tags:        []string{"sync"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) statsOp() huma.Operation {
	return huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Количество устройств и позиций",
		Tags:        []string{"data"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) clearOp() huma.Operation {
	return huma.Operation{
		OperationID: "data-clear",
		Method:      http.MethodDelete,
		Path:        "/api/v1/data",
		Summary:     "Удалить все данные пользователя из кэша",
		Tags:        []string{"data"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}
