package device

import (
	"time"
)

// Device устройство пользователя в локальном кэше.
// Пара (Owner, EnteredID) уникальна.
type Device struct {
	ID         int64      `json:"id"`
	Owner      string     `json:"owner"`
	EnteredID  string     `json:"enteredId"`
	RemoteID   int64      `json:"remoteId"`
	CustomName string     `json:"customName"`
	RemoteName string     `json:"remoteName"`
	Status     string     `json:"status"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// RemoteState поля устройства, которыми владеет сервер трекинга
type RemoteState struct {
	Name       string
	Status     string
	LastUpdate *time.Time
}

// Position одна точка из журнала позиций. Строки только добавляются.
type Position struct {
	ID           int64     `json:"id"`
	Owner        string    `json:"owner"`
	EnteredID    string    `json:"enteredId"`
	RemoteID     int64     `json:"remoteId"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Altitude     float64   `json:"altitude"`
	Speed        float64   `json:"speed"`
	Course       float64   `json:"course"`
	Accuracy     float64   `json:"accuracy"`
	Address      string    `json:"address,omitempty"`
	BatteryLevel *float64  `json:"batteryLevel,omitempty"`
	DeviceTime   time.Time `json:"deviceTime"`
	FixTime      time.Time `json:"fixTime"`
	ServerTime   time.Time `json:"serverTime"`
	Valid        bool      `json:"valid"`
	Outdated     bool      `json:"outdated"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DeviceWithPosition устройство вместе с последней сохраненной позицией
type DeviceWithPosition struct {
	Device
	Position *Position `json:"position"`
}

// Stats количество строк пользователя в кэше
type Stats struct {
	Devices   int `json:"devices"`
	Positions int `json:"positions"`
}
