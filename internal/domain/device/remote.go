package device

import (
	"context"
	"time"
)

// Remote интерфейс клиента удаленного сервера трекинга
type Remote interface {
	ListDevices(ctx context.Context) ([]RemoteDevice, error)
	ListPositions(ctx context.Context) ([]RemotePosition, error)
	// FindDeviceByUniqueID возвращает nil без ошибки, если устройство не найдено
	FindDeviceByUniqueID(ctx context.Context, uniqueID string) (*RemoteDevice, error)
	// GetDevicePosition возвращает nil без ошибки, если позиции нет
	GetDevicePosition(ctx context.Context, remoteID int64) (*RemotePosition, error)
	TestConnection(ctx context.Context) error
}

// RemoteDevice устройство в формате сервера Traccar
type RemoteDevice struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	UniqueID   string     `json:"uniqueId"`
	Status     string     `json:"status"`
	LastUpdate *time.Time `json:"lastUpdate"`
}

// RemotePosition позиция в формате сервера Traccar
type RemotePosition struct {
	ID         int64              `json:"id"`
	DeviceID   int64              `json:"deviceId"`
	DeviceTime time.Time          `json:"deviceTime"`
	FixTime    time.Time          `json:"fixTime"`
	ServerTime time.Time          `json:"serverTime"`
	Outdated   bool               `json:"outdated"`
	Valid      bool               `json:"valid"`
	Latitude   float64            `json:"latitude"`
	Longitude  float64            `json:"longitude"`
	Altitude   float64            `json:"altitude"`
	Speed      float64            `json:"speed"`
	Course     float64            `json:"course"`
	Address    string             `json:"address"`
	Accuracy   float64            `json:"accuracy"`
	Attributes PositionAttributes `json:"attributes"`
}

// PositionAttributes дополнительные атрибуты позиции.
// Из всего набора атрибутов Traccar нужен только уровень заряда.
type PositionAttributes struct {
	BatteryLevel *float64 `json:"batteryLevel,omitempty"`
}

// ToDevice переносит поля удаленного устройства в локальную запись
func (r *RemoteDevice) ToDevice(owner, enteredID, customName string) *Device {
	return &Device{
		Owner:      owner,
		EnteredID:  enteredID,
		RemoteID:   r.ID,
		CustomName: customName,
		RemoteName: r.Name,
		Status:     r.Status,
		LastUpdate: r.LastUpdate,
	}
}

// ToPosition переносит поля удаленной позиции в локальную запись
func (r *RemotePosition) ToPosition(owner, enteredID string) *Position {
	return &Position{
		Owner:        owner,
		EnteredID:    enteredID,
		RemoteID:     r.DeviceID,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Altitude:     r.Altitude,
		Speed:        r.Speed,
		Course:       r.Course,
		Accuracy:     r.Accuracy,
		Address:      r.Address,
		BatteryLevel: r.Attributes.BatteryLevel,
		DeviceTime:   r.DeviceTime,
		FixTime:      r.FixTime,
		ServerTime:   r.ServerTime,
		Valid:        r.Valid,
		Outdated:     r.Outdated,
	}
}
