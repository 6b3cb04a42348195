package device

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"tracker/internal/domain/device"
)

// Handler HTTP обертка над координатором. Ответ всегда {success, data, error}.
type Handler struct {
	service    device.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service device.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.addOp(), h.add)
	huma.Register(api, h.removeOp(), h.remove)
	huma.Register(api, h.syncOp(), h.sync)
	huma.Register(api, h.trackOp(), h.track)
	huma.Register(api, h.syncAllOp(), h.syncAll)
	huma.Register(api, h.statsOp(), h.stats)
	huma.Register(api, h.clearOp(), h.clear)
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	return &listOutput{Body: h.service.GetUserDevicesWithPositions(ctx)}, nil
}

func (h *Handler) add(ctx context.Context, input *addInput) (*addOutput, error) {
	res := h.service.AddDevice(ctx, input.Body.EnteredID, input.Body.CustomName)
	if !res.Success {
		h.log.Debug("add device failed", "entered_id", input.Body.EnteredID, "error", res.Error)
	}
	return &addOutput{Body: res}, nil
}

func (h *Handler) remove(ctx context.Context, input *deviceInput) (*emptyOutput, error) {
	return &emptyOutput{Body: h.service.RemoveDevice(ctx, input.EnteredID)}, nil
}

func (h *Handler) sync(ctx context.Context, input *deviceInput) (*syncOutput, error) {
	return &syncOutput{Body: h.service.SyncDevicePosition(ctx, input.EnteredID)}, nil
}

func (h *Handler) track(ctx context.Context, input *trackInput) (*trackOutput, error) {
	return &trackOutput{Body: h.service.GetTrack(ctx, input.EnteredID, input.Limit)}, nil
}

func (h *Handler) syncAll(ctx context.Context, _ *struct{}) (*syncAllOutput, error) {
	return &syncAllOutput{Body: h.service.SyncAllDevices(ctx)}, nil
}

func (h *Handler) stats(ctx context.Context, _ *struct{}) (*statsOutput, error) {
	return &statsOutput{Body: h.service.GetStats(ctx)}, nil
}

func (h *Handler) clear(ctx context.Context, _ *struct{}) (*emptyOutput, error) {
	return &emptyOutput{Body: h.service.ClearUserData(ctx)}, nil
}
