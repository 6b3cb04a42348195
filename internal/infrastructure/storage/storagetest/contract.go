// Package storagetest общий набор проверок реализаций device.Repository
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"tracker/internal/domain/device"
)

// Factory создает пустое хранилище для одного подтеста
type Factory func(t *testing.T) device.Repository

func Run(t *testing.T, newRepo Factory) {
	t.Run("SaveDevice upsert", func(t *testing.T) { testSaveDeviceUpsert(t, newRepo(t)) })
	t.Run("SaveDevice concurrent same key", func(t *testing.T) { testSaveDeviceConcurrent(t, newRepo(t)) })
	t.Run("UpdateRemoteState", func(t *testing.T) { testUpdateRemoteState(t, newRepo(t)) })
	t.Run("GetDevice", func(t *testing.T) { testGetDevice(t, newRepo(t)) })
	t.Run("devices order", func(t *testing.T) { testDevicesOrder(t, newRepo(t)) })
	t.Run("positions append only", func(t *testing.T) { testPositionsAppendOnly(t, newRepo(t)) })
	t.Run("GetPositions", func(t *testing.T) { testGetPositions(t, newRepo(t)) })
	t.Run("devices with positions", func(t *testing.T) { testDevicesWithPositions(t, newRepo(t)) })
	t.Run("DeleteDevice", func(t *testing.T) { testDeleteDevice(t, newRepo(t)) })
	t.Run("ClearUserData isolation", func(t *testing.T) { testClearUserData(t, newRepo(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newRepo(t).Ping(context.Background())) })
}

func newDevice(owner, enteredID string, remoteID int64) *device.Device {
	last := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &device.Device{
		Owner:      owner,
		EnteredID:  enteredID,
		RemoteID:   remoteID,
		CustomName: "Device " + enteredID,
		RemoteName: "Remote " + enteredID,
		Status:     "online",
		LastUpdate: &last,
	}
}

func newPosition(owner, enteredID string, remoteID int64, lat float64) *device.Position {
	fix := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &device.Position{
		Owner:      owner,
		EnteredID:  enteredID,
		RemoteID:   remoteID,
		Latitude:   lat,
		Longitude:  37.61,
		Speed:      12.5,
		DeviceTime: fix,
		FixTime:    fix,
		ServerTime: fix.Add(time.Second),
		Valid:      true,
	}
}

func testSaveDeviceUpsert(t *testing.T, repo device.Repository) {
	ctx := context.Background()

	id, err := repo.SaveDevice(ctx, newDevice("alice", "A", 1))
	require.NoError(t, err)
	require.NotZero(t, id)

	updated := newDevice("alice", "A", 2)
	updated.CustomName = "Renamed"
	updated.Status = "offline"
	updated.LastUpdate = nil

	again, err := repo.SaveDevice(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	devices, err := repo.GetUserDevices(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, int64(2), devices[0].RemoteID)
	assert.Equal(t, "Renamed", devices[0].CustomName)
	assert.Equal(t, "offline", devices[0].Status)
	assert.Nil(t, devices[0].LastUpdate)
	assert.False(t, devices[0].UpdatedAt.Before(devices[0].CreatedAt))

	// тот же идентификатор у другого владельца - отдельное устройство
	other, err := repo.SaveDevice(ctx, newDevice("bob", "A", 1))
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func testUpdateRemoteState(t *testing.T, repo device.Repository) {
	ctx := context.Background()

	_, err := repo.SaveDevice(ctx, newDevice("alice", "A", 1))
	require.NoError(t, err)

	last := time.Date(2025, 4, 2, 8, 30, 0, 0, time.UTC)
	err = repo.UpdateRemoteState(ctx, "alice", "A", device.RemoteState{
		Name:       "Remote new",
		Status:     "offline",
		LastUpdate: &last,
	})
	require.NoError(t, err)

	d, err := repo.GetDevice(ctx, "alice", "A")
	require.NoError(t, err)
	assert.Equal(t, "Device A", d.CustomName)
	assert.Equal(t, int64(1), d.RemoteID)
	assert.Equal(t, "Remote new", d.RemoteName)
	assert.Equal(t, "offline", d.Status)
	require.NotNil(t, d.LastUpdate)
	assert.True(t, d.LastUpdate.Equal(last))

	// отсутствующее устройство не создается
	require.NoError(t, repo.UpdateRemoteState(ctx, "alice", "missing", device.RemoteState{Status: "online"}))
	_, err = repo.GetDevice(ctx, "alice", "missing")
	assert.ErrorIs(t, err, device.ErrDeviceNotFound)
}

func testGetDevice(t *testing.T, repo device.Repository) {
	ctx := context.Background()

	_, err := repo.SaveDevice(ctx, newDevice("alice", "A", 7))
	require.NoError(t, err)

	d, err := repo.GetDevice(ctx, "alice", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.RemoteID)
	require.NotNil(t, d.LastUpdate)
	assert.True(t, d.LastUpdate.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))

	_, err = repo.GetDevice(ctx, "bob", "A")
	assert.ErrorIs(t, err, device.ErrDeviceNotFound)
}

func testDevicesOrder(t *testing.T, repo device.Repository) {
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		_, err := repo.SaveDevice(ctx, newDevice("alice", id, 1))
		require.NoError(t, err)
	}

	devices, err := repo.GetUserDevices(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, "third", devices[0].EnteredID)
	assert.Equal(t, "first", devices[2].EnteredID)

	empty, err := repo.GetUserDevices(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testPositionsAppendOnly(t *testing.T, repo device.Repository) {
	ctx := context.Background()
	battery := 64.0

	_, err := repo.SaveDevice(ctx, newDevice("alice", "A", 1))
	require.NoError(t, err)

	latest, err := repo.GetLatestPosition(ctx, "alice", "A")
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := newPosition("alice", "A", 1, 55.0)
	first.BatteryLevel = &battery
	id1, err := repo.SavePosition(ctx, first)
	require.NoError(t, err)

	// одинаковые данные все равно дают новую строку
	id2, err := repo.SavePosition(ctx, newPosition("alice", "A", 1, 55.0))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	latest, err = repo.GetLatestPosition(ctx, "alice", "A")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, id2, latest.ID)
	assert.Nil(t, latest.BatteryLevel)
	assert.True(t, latest.Valid)
	assert.True(t, latest.FixTime.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))

	stats, err := repo.GetStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &device.Stats{Devices: 1, Positions: 2}, stats)
}

func testGetPositions(t *testing.T, repo device.Repository) {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.SavePosition(ctx, newPosition("alice", "A", 1, float64(50+i)))
		require.NoError(t, err)
	}
	_, err := repo.SavePosition(ctx, newPosition("alice", "B", 2, 10))
	require.NoError(t, err)

	positions, err := repo.GetPositions(ctx, "alice", "A", 3)
	require.NoError(t, err)
	require.Len(t, positions, 3)
	assert.Equal(t, 52.0, positions[0].Latitude)
	assert.Equal(t, 54.0, positions[2].Latitude)

	none, err := repo.GetPositions(ctx, "alice", "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	for _, limit := range []int{0, -1} {
		empty, err := repo.GetPositions(ctx, "alice", "A", limit)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty, "limit %d", limit)
	}
}

func testSaveDeviceConcurrent(t *testing.T, repo device.Repository) {
	ctx := context.Background()

	const workers = 8
	for round := 0; round < 5; round++ {
		enteredID := fmt.Sprintf("race-%d", round)

		g, gctx := errgroup.WithContext(ctx)
		ids := make([]int64, workers)
		for i := 0; i < workers; i++ {
			g.Go(func() error {
				d := newDevice("alice", enteredID, int64(i+1))
				d.CustomName = fmt.Sprintf("Name %d", i)
				id, err := repo.SaveDevice(gctx, d)
				ids[i] = id
				return err
			})
		}
		require.NoError(t, g.Wait())

		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}

		d, err := repo.GetDevice(ctx, "alice", enteredID)
		require.NoError(t, err)
		assert.Equal(t, ids[0], d.ID)
		// побеждает одна из записей целиком
		assert.Equal(t, fmt.Sprintf("Name %d", d.RemoteID-1), d.CustomName)
	}

	stats, err := repo.GetStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Devices)
}

func testDevicesWithPositions(t *testing.T, repo device.Repository) {
	ctx := context.Background()

	_, err := repo.SaveDevice(ctx, newDevice("alice", "A", 1))
	require.NoError(t, err)
	_, err = repo.SaveDevice(ctx, newDevice("alice", "B", 2))
	require.NoError(t, err)
	_, err = repo.SavePosition(ctx, newPosition("alice", "A", 1, 55.0))
	require.NoError(t, err)
	_, err = repo.SavePosition(ctx, newPosition("alice", "A", 1, 56.0))
	require.NoError(t, err)

	items, err := repo.GetUserDevicesWithPositions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "B", items[0].EnteredID)
	assert.Nil(t, items[0].Position)
	assert.Equal(t, "A", items[1].EnteredID)
	require.NotNil(t, items[1].Position)
	assert.Equal(t, 56.0, items[1].Position.Latitude)
}

func testDeleteDevice(t *testing.T, repo device.Repository) {
	ctx := context.Background()

	_, err := repo.SaveDevice(ctx, newDevice("alice", "A", 1))
	require.NoError(t, err)
	_, err = repo.SaveDevice(ctx, newDevice("alice", "B", 2))
	require.NoError(t, err)
	_, err = repo.SavePosition(ctx, newPosition("alice", "A", 1, 55.0))
	require.NoError(t, err)
	_, err = repo.SavePosition(ctx, newPosition("alice", "B", 2, 56.0))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDevice(ctx, "alice", "A"))
	// удаление отсутствующего устройства не ошибка
	require.NoError(t, repo.DeleteDevice(ctx, "alice", "A"))

	_, err = repo.GetDevice(ctx, "alice", "A")
	assert.ErrorIs(t, err, device.ErrDeviceNotFound)

	latest, err := repo.GetLatestPosition(ctx, "alice", "A")
	require.NoError(t, err)
	assert.Nil(t, latest)

	stats, err := repo.GetStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &device.Stats{Devices: 1, Positions: 1}, stats)
}

func testClearUserData(t *testing.T, repo device.Repository) {
	ctx := context.Background()

	for _, owner := range []string{"alice", "bob"} {
		_, err := repo.SaveDevice(ctx, newDevice(owner, "A", 1))
		require.NoError(t, err)
		_, err = repo.SavePosition(ctx, newPosition(owner, "A", 1, 55.0))
		require.NoError(t, err)
	}

	require.NoError(t, repo.ClearUserData(ctx, "alice"))

	stats, err := repo.GetStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &device.Stats{}, stats)

	stats, err = repo.GetStats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, &device.Stats{Devices: 1, Positions: 1}, stats)
}
