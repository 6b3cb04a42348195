package device

import "time"

// AddDeviceRequest входные данные добавления устройства
type AddDeviceRequest struct {
	EnteredID  string `json:"enteredId" validate:"required,max=64"`
	CustomName string `json:"customName" validate:"max=100"`
}

// InitReport результат инициализации координатора
type InitReport struct {
	Online bool   `json:"online"`
	Stats  *Stats `json:"stats,omitempty"`
}

// SyncReport результат одного прохода синхронизации всех устройств
type SyncReport struct {
	Total    int           `json:"total"`
	Synced   int           `json:"synced"`
	Empty    int           `json:"empty"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// SyncStats накопленная статистика синхронизации
type SyncStats struct {
	TotalSyncs   int           `json:"total_syncs"`
	LastSync     time.Time     `json:"last_sync"`
	LastDuration time.Duration `json:"last_duration"`
	TotalSynced  int           `json:"total_synced"`
	TotalFailed  int           `json:"total_failed"`
}
