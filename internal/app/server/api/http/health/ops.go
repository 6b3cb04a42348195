package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Состояние локального API",
		Description: "Проверяет доступность кэша. Всегда отвечает 200, состояние в поле status",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
