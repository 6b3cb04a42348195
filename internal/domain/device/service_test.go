package device

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"tracker/internal/domain/session"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) SaveDevice(ctx context.Context, d *Device) (int64, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) UpdateRemoteState(ctx context.Context, owner, enteredID string, state RemoteState) error {
	args := m.Called(ctx, owner, enteredID, state)
	return args.Error(0)
}

func (m *MockRepository) SavePosition(ctx context.Context, p *Position) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetUserDevices(ctx context.Context, owner string) ([]*Device, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Device), args.Error(1)
}

func (m *MockRepository) GetDevice(ctx context.Context, owner, enteredID string) (*Device, error) {
	args := m.Called(ctx, owner, enteredID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Device), args.Error(1)
}

func (m *MockRepository) GetLatestPosition(ctx context.Context, owner, enteredID string) (*Position, error) {
	args := m.Called(ctx, owner, enteredID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Position), args.Error(1)
}

func (m *MockRepository) GetPositions(ctx context.Context, owner, enteredID string, limit int) ([]*Position, error) {
	args := m.Called(ctx, owner, enteredID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Position), args.Error(1)
}

func (m *MockRepository) GetUserDevicesWithPositions(ctx context.Context, owner string) ([]*DeviceWithPosition, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*DeviceWithPosition), args.Error(1)
}

func (m *MockRepository) DeleteDevice(ctx context.Context, owner, enteredID string) error {
	args := m.Called(ctx, owner, enteredID)
	return args.Error(0)
}

func (m *MockRepository) ClearUserData(ctx context.Context, owner string) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *MockRepository) GetStats(ctx context.Context, owner string) (*Stats, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Stats), args.Error(1)
}

func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) ListDevices(ctx context.Context) ([]RemoteDevice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RemoteDevice), args.Error(1)
}

func (m *MockRemote) ListPositions(ctx context.Context) ([]RemotePosition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RemotePosition), args.Error(1)
}

func (m *MockRemote) FindDeviceByUniqueID(ctx context.Context, uniqueID string) (*RemoteDevice, error) {
	args := m.Called(ctx, uniqueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RemoteDevice), args.Error(1)
}

func (m *MockRemote) GetDevicePosition(ctx context.Context, remoteID int64) (*RemotePosition, error) {
	args := m.Called(ctx, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RemotePosition), args.Error(1)
}

func (m *MockRemote) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type staticUser struct {
	login string
	err   error
}

func (u staticUser) CurrentUser(context.Context) (string, error) {
	return u.login, u.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo *MockRepository, remote *MockRemote, users session.Provider) *Service {
	return NewService(repo, remote, users, testLogger(), &ServiceConfig{SyncConcurrency: 2})
}

func TestService_AddDevice(t *testing.T) {
	ctx := context.Background()
	battery := 87.0

	t.Run("успешное добавление с позицией", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		remote.On("FindDeviceByUniqueID", ctx, "123456").
			Return(&RemoteDevice{ID: 7, Name: "Tracker", UniqueID: "123456", Status: "online"}, nil)
		repo.On("SaveDevice", ctx, mock.MatchedBy(func(d *Device) bool {
			return d.Owner == "alice" && d.EnteredID == "123456" && d.RemoteID == 7 && d.CustomName == "Car"
		})).Return(int64(1), nil)
		repo.On("GetDevice", ctx, "alice", "123456").
			Return(&Device{ID: 1, Owner: "alice", EnteredID: "123456", RemoteID: 7, CustomName: "Car", RemoteName: "Tracker"}, nil)
		remote.On("GetDevicePosition", ctx, int64(7)).
			Return(&RemotePosition{DeviceID: 7, Latitude: 55.75, Longitude: 37.61, Valid: true,
				Attributes: PositionAttributes{BatteryLevel: &battery}}, nil)
		repo.On("SavePosition", ctx, mock.AnythingOfType("*device.Position")).Return(int64(10), nil)

		res := svc.AddDevice(ctx, "  123456 ", "Car")

		require.True(t, res.Success, res.Error)
		assert.Equal(t, "123456", res.Data.EnteredID)
		assert.Equal(t, "Car", res.Data.CustomName)
		require.NotNil(t, res.Data.Position)
		assert.Equal(t, int64(10), res.Data.Position.ID)
		assert.Equal(t, 87.0, *res.Data.Position.BatteryLevel)
		repo.AssertExpectations(t)
		remote.AssertExpectations(t)
	})

	t.Run("пустое имя заменяется именем с сервера", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		remote.On("FindDeviceByUniqueID", ctx, "42").
			Return(&RemoteDevice{ID: 3, Name: "Remote name", UniqueID: "42"}, nil)
		repo.On("SaveDevice", ctx, mock.MatchedBy(func(d *Device) bool {
			return d.CustomName == "Remote name"
		})).Return(int64(2), nil)
		repo.On("GetDevice", ctx, "alice", "42").Return(nil, ErrDeviceNotFound)
		remote.On("GetDevicePosition", ctx, int64(3)).Return(nil, nil)

		res := svc.AddDevice(ctx, "42", "   ")

		require.True(t, res.Success, res.Error)
		assert.Equal(t, "Remote name", res.Data.CustomName)
		assert.Equal(t, int64(2), res.Data.ID)
		assert.Nil(t, res.Data.Position)
		repo.AssertNotCalled(t, "SavePosition", mock.Anything, mock.Anything)
	})

	t.Run("ошибка получения позиции не отменяет добавление", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		remote.On("FindDeviceByUniqueID", ctx, "42").Return(&RemoteDevice{ID: 3, Name: "X"}, nil)
		repo.On("SaveDevice", ctx, mock.Anything).Return(int64(2), nil)
		repo.On("GetDevice", ctx, "alice", "42").Return(&Device{ID: 2, EnteredID: "42", RemoteID: 3}, nil)
		remote.On("GetDevicePosition", ctx, int64(3)).Return(nil, errors.New("timeout"))

		res := svc.AddDevice(ctx, "42", "")

		require.True(t, res.Success)
		assert.Nil(t, res.Data.Position)
	})

	t.Run("устройство не найдено на сервере", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		remote.On("FindDeviceByUniqueID", ctx, "999").Return(nil, nil)

		res := svc.AddDevice(ctx, "999", "")

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, ErrRemoteDeviceNotFound.Error())
		repo.AssertNotCalled(t, "SaveDevice", mock.Anything, mock.Anything)
	})

	t.Run("сервер недоступен", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		remote.On("FindDeviceByUniqueID", ctx, "1").Return(nil, errors.New("connection refused"))

		res := svc.AddDevice(ctx, "1", "")

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "connection refused")
	})

	t.Run("некорректный ввод", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		res := svc.AddDevice(ctx, "   ", "")

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, ErrInvalidInput.Error())
		remote.AssertNotCalled(t, "FindDeviceByUniqueID", mock.Anything, mock.Anything)
	})

	t.Run("пользователь не авторизован", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{err: session.ErrNotAuthenticated})

		res := svc.AddDevice(ctx, "1", "")

		assert.False(t, res.Success)
		assert.Equal(t, session.ErrNotAuthenticated.Error(), res.Error)
	})
}

func TestService_SyncDevicePosition(t *testing.T) {
	ctx := context.Background()
	dev := &Device{ID: 1, Owner: "alice", EnteredID: "A", RemoteID: 5}

	tests := []struct {
		name        string
		setup       func(repo *MockRepository, remote *MockRemote)
		wantSuccess bool
		wantData    bool
	}{
		{
			name: "позиция сохранена",
			setup: func(repo *MockRepository, remote *MockRemote) {
				repo.On("GetDevice", ctx, "alice", "A").Return(dev, nil)
				remote.On("GetDevicePosition", ctx, int64(5)).Return(&RemotePosition{DeviceID: 5, Valid: true}, nil)
				repo.On("SavePosition", ctx, mock.Anything).Return(int64(3), nil)
			},
			wantSuccess: true,
			wantData:    true,
		},
		{
			name: "нет позиции на сервере",
			setup: func(repo *MockRepository, remote *MockRemote) {
				repo.On("GetDevice", ctx, "alice", "A").Return(dev, nil)
				remote.On("GetDevicePosition", ctx, int64(5)).Return(nil, nil)
			},
			wantSuccess: true,
		},
		{
			name: "устройство не найдено",
			setup: func(repo *MockRepository, remote *MockRemote) {
				repo.On("GetDevice", ctx, "alice", "A").Return(nil, ErrDeviceNotFound)
			},
		},
		{
			name: "ошибка сервера",
			setup: func(repo *MockRepository, remote *MockRemote) {
				repo.On("GetDevice", ctx, "alice", "A").Return(dev, nil)
				remote.On("GetDevicePosition", ctx, int64(5)).Return(nil, errors.New("502"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			remote := new(MockRemote)
			tt.setup(repo, remote)
			svc := newTestService(repo, remote, staticUser{login: "alice"})

			res := svc.SyncDevicePosition(ctx, "A")

			assert.Equal(t, tt.wantSuccess, res.Success)
			if tt.wantData {
				assert.NotNil(t, res.Data)
			} else {
				assert.Nil(t, res.Data)
			}
			if !tt.wantSuccess {
				assert.NotEmpty(t, res.Error)
			}
		})
	}
}

func TestService_SyncAllDevices(t *testing.T) {
	ctx := context.Background()

	t.Run("ошибки отдельных устройств не прерывают синхронизацию", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		devices := []*Device{
			{ID: 1, Owner: "alice", EnteredID: "A", RemoteID: 1},
			{ID: 2, Owner: "alice", EnteredID: "B", RemoteID: 2},
			{ID: 3, Owner: "alice", EnteredID: "C", RemoteID: 3},
		}
		repo.On("GetUserDevices", ctx, "alice").Return(devices, nil)
		remote.On("ListDevices", ctx).Return([]RemoteDevice{{ID: 1, Name: "One", Status: "online"}}, nil)
		repo.On("UpdateRemoteState", ctx, "alice", "A", RemoteState{Name: "One", Status: "online"}).Return(nil)
		remote.On("GetDevicePosition", ctx, int64(1)).Return(&RemotePosition{DeviceID: 1}, nil)
		remote.On("GetDevicePosition", ctx, int64(2)).Return(nil, errors.New("timeout"))
		remote.On("GetDevicePosition", ctx, int64(3)).Return(nil, nil)
		repo.On("SavePosition", ctx, mock.Anything).Return(int64(1), nil)

		res := svc.SyncAllDevices(ctx)

		require.True(t, res.Success)
		assert.Equal(t, 3, res.Data.Total)
		assert.Equal(t, 1, res.Data.Synced)
		assert.Equal(t, 1, res.Data.Empty)
		assert.Equal(t, 1, res.Data.Failed)

		stats := svc.GetSyncStats()
		assert.Equal(t, 1, stats.TotalSyncs)
		assert.Equal(t, 1, stats.TotalSynced)
		assert.Equal(t, 1, stats.TotalFailed)
		assert.False(t, stats.LastSync.IsZero())

		repo.AssertExpectations(t)
	})

	t.Run("ошибка списка устройств сервера не мешает синхронизации", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		repo.On("GetUserDevices", ctx, "alice").Return([]*Device{{EnteredID: "A", RemoteID: 1}}, nil)
		remote.On("ListDevices", ctx).Return(nil, errors.New("unauthorized"))
		remote.On("GetDevicePosition", ctx, int64(1)).Return(&RemotePosition{DeviceID: 1}, nil)
		repo.On("SavePosition", ctx, mock.Anything).Return(int64(1), nil)

		res := svc.SyncAllDevices(ctx)

		require.True(t, res.Success)
		assert.Equal(t, 1, res.Data.Synced)
		repo.AssertNotCalled(t, "UpdateRemoteState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("нет устройств", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		repo.On("GetUserDevices", ctx, "alice").Return([]*Device{}, nil)

		res := svc.SyncAllDevices(ctx)

		require.True(t, res.Success)
		assert.Equal(t, 0, res.Data.Total)
		remote.AssertNotCalled(t, "ListDevices", mock.Anything)
	})

	t.Run("ошибка хранилища", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		repo.On("GetUserDevices", ctx, "alice").Return(nil, errors.New("disk I/O error"))

		res := svc.SyncAllDevices(ctx)

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "disk I/O error")
	})
}

func TestService_GetUserDevicesWithPositions(t *testing.T) {
	ctx := context.Background()

	t.Run("возвращает список", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockRemote), staticUser{login: "alice"})

		items := []*DeviceWithPosition{{Device: Device{EnteredID: "A"}}}
		repo.On("GetUserDevicesWithPositions", ctx, "alice").Return(items, nil)

		res := svc.GetUserDevicesWithPositions(ctx)

		require.True(t, res.Success)
		assert.Len(t, res.Data, 1)
	})

	t.Run("ошибка хранилища дает пустой успешный список", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockRemote), staticUser{login: "alice"})

		repo.On("GetUserDevicesWithPositions", ctx, "alice").Return(nil, errors.New("database is locked"))

		res := svc.GetUserDevicesWithPositions(ctx)

		assert.True(t, res.Success)
		assert.NotNil(t, res.Data)
		assert.Empty(t, res.Data)
		assert.Empty(t, res.Error)
	})

	t.Run("нет пользователя дает пустой успешный список", func(t *testing.T) {
		svc := newTestService(new(MockRepository), new(MockRemote), staticUser{err: session.ErrNotAuthenticated})

		res := svc.GetUserDevicesWithPositions(ctx)

		assert.True(t, res.Success)
		assert.Empty(t, res.Data)
	})
}

func TestService_RemoveStatsClear(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo, new(MockRemote), staticUser{login: "alice"})

	repo.On("DeleteDevice", ctx, "alice", "A").Return(nil)
	repo.On("DeleteDevice", ctx, "alice", "B").Return(errors.New("locked"))
	repo.On("GetStats", ctx, "alice").Return(&Stats{Devices: 2, Positions: 5}, nil)
	repo.On("ClearUserData", ctx, "alice").Return(nil)

	assert.True(t, svc.RemoveDevice(ctx, "A").Success)

	failed := svc.RemoveDevice(ctx, "B")
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "locked")

	stats := svc.GetStats(ctx)
	require.True(t, stats.Success)
	assert.Equal(t, &Stats{Devices: 2, Positions: 5}, stats.Data)

	assert.True(t, svc.ClearUserData(ctx).Success)
	repo.AssertExpectations(t)
}

func TestService_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("сервер недоступен, работаем офлайн", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		repo.On("Ping", ctx).Return(nil)
		remote.On("TestConnection", ctx).Return(errors.New("no route to host"))
		repo.On("GetStats", ctx, "alice").Return(&Stats{Devices: 1}, nil)

		res := svc.Initialize(ctx)

		require.True(t, res.Success)
		assert.False(t, res.Data.Online)
		assert.Equal(t, 1, res.Data.Stats.Devices)
	})

	t.Run("хранилище недоступно", func(t *testing.T) {
		repo := new(MockRepository)
		remote := new(MockRemote)
		svc := newTestService(repo, remote, staticUser{login: "alice"})

		repo.On("Ping", ctx).Return(errors.New("unable to open database file"))

		res := svc.Initialize(ctx)

		assert.False(t, res.Success)
		remote.AssertNotCalled(t, "TestConnection", mock.Anything)
	})
}

func TestService_GetTrack(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo, new(MockRemote), staticUser{login: "alice"})

	now := time.Now().UTC()
	repo.On("GetDevice", ctx, "alice", "A").Return(&Device{EnteredID: "A", CustomName: "Car"}, nil)
	repo.On("GetPositions", ctx, "alice", "A", defaultTrackLimit).Return([]*Position{
		{Latitude: 55.0, Longitude: 37.0, Valid: true, FixTime: now},
		{Latitude: 55.1, Longitude: 37.0, Valid: true, FixTime: now.Add(time.Minute)},
	}, nil)
	repo.On("GetDevice", ctx, "alice", "missing").Return(nil, ErrDeviceNotFound)

	res := svc.GetTrack(ctx, "A", 0)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.Data.Points)
	assert.InDelta(t, 11132, res.Data.DistanceMeters, 50)

	missing := svc.GetTrack(ctx, "missing", 10)
	assert.False(t, missing.Success)
	assert.Equal(t, ErrDeviceNotFound.Error(), missing.Error)
}
