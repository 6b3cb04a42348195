package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tracker/internal/domain/device"
)

// Storage хранилище в памяти процесса. Используется, когда файл SQLite
// недоступен, и в тестах.
type Storage struct {
	mu          sync.RWMutex
	devices     []*device.Device
	positions   []*device.Position
	deviceSeq   int64
	positionSeq int64
}

var _ device.Repository = (*Storage)(nil)

func New() *Storage {
	return &Storage{}
}

func (s *Storage) SaveDevice(_ context.Context, d *device.Device) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, existing := range s.devices {
		if existing.Owner == d.Owner && existing.EnteredID == d.EnteredID {
			existing.RemoteID = d.RemoteID
			existing.CustomName = d.CustomName
			existing.RemoteName = d.RemoteName
			existing.Status = d.Status
			existing.LastUpdate = copyTime(d.LastUpdate)
			existing.UpdatedAt = now
			return existing.ID, nil
		}
	}

	s.deviceSeq++
	stored := *d
	stored.ID = s.deviceSeq
	stored.LastUpdate = copyTime(d.LastUpdate)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.devices = append(s.devices, &stored)

	return stored.ID, nil
}

func (s *Storage) UpdateRemoteState(_ context.Context, owner, enteredID string, state device.RemoteState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.devices {
		if existing.Owner == owner && existing.EnteredID == enteredID {
			existing.RemoteName = state.Name
			existing.Status = state.Status
			existing.LastUpdate = copyTime(state.LastUpdate)
			existing.UpdatedAt = time.Now().UTC()
			return nil
		}
	}

	return nil
}

func (s *Storage) SavePosition(_ context.Context, p *device.Position) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positionSeq++
	stored := *p
	stored.ID = s.positionSeq
	stored.CreatedAt = time.Now().UTC()
	if p.BatteryLevel != nil {
		v := *p.BatteryLevel
		stored.BatteryLevel = &v
	}
	s.positions = append(s.positions, &stored)

	return stored.ID, nil
}

func (s *Storage) GetUserDevices(_ context.Context, owner string) ([]*device.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.userDevices(owner), nil
}

func (s *Storage) GetDevice(_ context.Context, owner, enteredID string) (*device.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.devices {
		if d.Owner == owner && d.EnteredID == enteredID {
			return cloneDevice(d), nil
		}
	}

	return nil, device.ErrDeviceNotFound
}

func (s *Storage) GetLatestPosition(_ context.Context, owner, enteredID string) (*device.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latestPosition(owner, enteredID), nil
}

func (s *Storage) GetPositions(_ context.Context, owner, enteredID string, limit int) ([]*device.Position, error) {
	if limit <= 0 {
		return []*device.Position{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*device.Position, 0)
	for _, p := range s.positions {
		if p.Owner == owner && p.EnteredID == enteredID {
			result = append(result, clonePosition(p))
		}
	}

	if len(result) > limit {
		result = result[len(result)-limit:]
	}

	return result, nil
}

func (s *Storage) GetUserDevicesWithPositions(_ context.Context, owner string) ([]*device.DeviceWithPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := s.userDevices(owner)
	result := make([]*device.DeviceWithPosition, 0, len(devices))
	for _, d := range devices {
		result = append(result, &device.DeviceWithPosition{
			Device:   *d,
			Position: s.latestPosition(owner, d.EnteredID),
		})
	}

	return result, nil
}

func (s *Storage) DeleteDevice(_ context.Context, owner, enteredID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions = filter(s.positions, func(p *device.Position) bool {
		return p.Owner != owner || p.EnteredID != enteredID
	})
	s.devices = filter(s.devices, func(d *device.Device) bool {
		return d.Owner != owner || d.EnteredID != enteredID
	})

	return nil
}

func (s *Storage) ClearUserData(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions = filter(s.positions, func(p *device.Position) bool { return p.Owner != owner })
	s.devices = filter(s.devices, func(d *device.Device) bool { return d.Owner != owner })

	return nil
}

func (s *Storage) GetStats(_ context.Context, owner string) (*device.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats device.Stats
	for _, d := range s.devices {
		if d.Owner == owner {
			stats.Devices++
		}
	}
	for _, p := range s.positions {
		if p.Owner == owner {
			stats.Positions++
		}
	}

	return &stats, nil
}

func (s *Storage) Ping(context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) userDevices(owner string) []*device.Device {
	result := make([]*device.Device, 0)
	for _, d := range s.devices {
		if d.Owner == owner {
			result = append(result, cloneDevice(d))
		}
	}

	// Новые первыми
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result
}

func (s *Storage) latestPosition(owner, enteredID string) *device.Position {
	for i := len(s.positions) - 1; i >= 0; i-- {
		p := s.positions[i]
		if p.Owner == owner && p.EnteredID == enteredID {
			return clonePosition(p)
		}
	}
	return nil
}

func filter[T any](items []T, keep func(T) bool) []T {
	result := items[:0]
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}

func cloneDevice(d *device.Device) *device.Device {
	c := *d
	c.LastUpdate = copyTime(d.LastUpdate)
	return &c
}

func clonePosition(p *device.Position) *device.Position {
	c := *p
	if p.BatteryLevel != nil {
		v := *p.BatteryLevel
		c.BatteryLevel = &v
	}
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
