package device

import (
	"context"
)

// Repository локальный кэш устройств и позиций
type Repository interface {
	// SaveDevice обновляет устройство по (Owner, EnteredID) или создает новое, возвращает id строки
	SaveDevice(ctx context.Context, d *Device) (int64, error)
	// UpdateRemoteState меняет только поля, пришедшие с сервера (remote_name, status,
	// last_update). Отсутствующее устройство не ошибка.
	UpdateRemoteState(ctx context.Context, owner, enteredID string, state RemoteState) error
	// SavePosition всегда добавляет новую строку
	SavePosition(ctx context.Context, p *Position) (int64, error)
	// GetUserDevices возвращает устройства владельца, новые первыми
	GetUserDevices(ctx context.Context, owner string) ([]*Device, error)
	// GetDevice возвращает ErrDeviceNotFound, если устройства нет
	GetDevice(ctx context.Context, owner, enteredID string) (*Device, error)
	// GetLatestPosition возвращает nil без ошибки, если позиций нет
	GetLatestPosition(ctx context.Context, owner, enteredID string) (*Position, error)
	// GetPositions возвращает последние limit позиций в порядке вставки (старые первыми).
	// При limit <= 0 возвращает пустой список.
	GetPositions(ctx context.Context, owner, enteredID string, limit int) ([]*Position, error)
	GetUserDevicesWithPositions(ctx context.Context, owner string) ([]*DeviceWithPosition, error)
	DeleteDevice(ctx context.Context, owner, enteredID string) error
	ClearUserData(ctx context.Context, owner string) error
	GetStats(ctx context.Context, owner string) (*Stats, error)
	Ping(ctx context.Context) error
	Close() error
}
