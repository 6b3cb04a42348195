package device

import (
	"context"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"tracker/internal/domain/session"
)

const (
	defaultSyncConcurrency = 4
	defaultTrackLimit      = 500
)

// Servicer операции координатора, доступные интерфейсу пользователя
type Servicer interface {
	Initialize(ctx context.Context) Result[*InitReport]
	AddDevice(ctx context.Context, enteredID, customName string) Result[*DeviceWithPosition]
	SyncDevicePosition(ctx context.Context, enteredID string) Result[*Position]
	SyncAllDevices(ctx context.Context) Result[*SyncReport]
	GetUserDevicesWithPositions(ctx context.Context) Result[[]*DeviceWithPosition]
	RemoveDevice(ctx context.Context, enteredID string) Result[struct{}]
	GetStats(ctx context.Context) Result[*Stats]
	ClearUserData(ctx context.Context) Result[struct{}]
	GetTrack(ctx context.Context, enteredID string, limit int) Result[*Track]
}

// ServiceConfig конфигурация координатора
type ServiceConfig struct {
	SyncConcurrency int
}

// Service координатор удаленного клиента и локального кэша.
// Единственная точка входа для интерфейса пользователя.
type Service struct {
	repo      Repository
	remote    Remote
	users     session.Provider
	log       *slog.Logger
	config    *ServiceConfig
	validate  *validator.Validate
	scheduler *Scheduler

	mu    gosync.RWMutex
	stats SyncStats
}

// NewService создает координатор
func NewService(repo Repository, remote Remote, users session.Provider, log *slog.Logger, config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{}
	}
	if config.SyncConcurrency <= 0 {
		config.SyncConcurrency = defaultSyncConcurrency
	}

	s := &Service{
		repo:     repo,
		remote:   remote,
		users:    users,
		log:      log.With(slog.String("component", "device_service")),
		config:   config,
		validate: validator.New(),
	}
	s.scheduler = NewScheduler(s.autoSync, s.log)

	return s
}

// Initialize проверяет локальное хранилище и пробует соединиться с сервером.
// Недоступный сервер не считается ошибкой: приложение работает офлайн.
func (s *Service) Initialize(ctx context.Context) Result[*InitReport] {
	if err := s.repo.Ping(ctx); err != nil {
		s.log.Error("Локальное хранилище недоступно", "error", err)
		return Fail[*InitReport](fmt.Errorf("ошибка инициализации хранилища: %w", err))
	}

	report := &InitReport{Online: true}
	if err := s.remote.TestConnection(ctx); err != nil {
		s.log.Warn("Сервер трекинга недоступен, работаем офлайн", "error", err)
		report.Online = false
	}

	if owner, err := s.users.CurrentUser(ctx); err == nil {
		if stats, err := s.repo.GetStats(ctx, owner); err == nil {
			report.Stats = stats
		}
	}

	s.log.Info("Координатор инициализирован", "online", report.Online)
	return Ok(report)
}

// AddDevice ищет устройство на сервере, сохраняет его и пробует получить первую позицию
func (s *Service) AddDevice(ctx context.Context, enteredID, customName string) Result[*DeviceWithPosition] {
	owner, err := s.users.CurrentUser(ctx)
	if err != nil {
		return Fail[*DeviceWithPosition](err)
	}

	req := AddDeviceRequest{
		EnteredID:  strings.TrimSpace(enteredID),
		CustomName: strings.TrimSpace(customName),
	}
	if err := s.validate.Struct(req); err != nil {
		return Fail[*DeviceWithPosition](fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}

	remote, err := s.remote.FindDeviceByUniqueID(ctx, req.EnteredID)
	if err != nil {
		s.log.Warn("Ошибка поиска устройства на сервере", "entered_id", req.EnteredID, "error", err)
		return Fail[*DeviceWithPosition](fmt.Errorf("ошибка поиска устройства на сервере: %w", err))
	}
	if remote == nil {
		return Fail[*DeviceWithPosition](fmt.Errorf("%w: %s", ErrRemoteDeviceNotFound, req.EnteredID))
	}

	name := req.CustomName
	if name == "" {
		name = remote.Name
	}

	dev := remote.ToDevice(owner, req.EnteredID, name)
	id, err := s.repo.SaveDevice(ctx, dev)
	if err != nil {
		s.log.Error("Ошибка сохранения устройства", "entered_id", req.EnteredID, "error", err)
		return Fail[*DeviceWithPosition](fmt.Errorf("ошибка сохранения устройства: %w", err))
	}
	dev.ID = id

	if saved, err := s.repo.GetDevice(ctx, owner, req.EnteredID); err == nil {
		dev = saved
	}

	result := &DeviceWithPosition{Device: *dev}

	// Первая позиция необязательна: устройство остается даже без нее
	pos, err := s.fetchAndStorePosition(ctx, dev)
	if err != nil {
		s.log.Warn("Не удалось получить начальную позицию", "entered_id", dev.EnteredID, "error", err)
	} else {
		result.Position = pos
	}

	s.log.Info("Устройство добавлено",
		"entered_id", dev.EnteredID,
		"remote_id", dev.RemoteID,
		"has_position", result.Position != nil,
	)
	return Ok(result)
}

// SyncDevicePosition получает последнюю позицию устройства и добавляет ее в журнал.
// Отсутствие позиции на сервере - успех с пустыми данными.
func (s *Service) SyncDevicePosition(ctx context.Context, enteredID string) Result[*Position] {
	owner, err := s.users.CurrentUser(ctx)
	if err != nil {
		return Fail[*Position](err)
	}

	dev, err := s.repo.GetDevice(ctx, owner, enteredID)
	if err != nil {
		return Fail[*Position](err)
	}

	pos, err := s.fetchAndStorePosition(ctx, dev)
	if err != nil {
		s.log.Warn("Ошибка синхронизации позиции", "entered_id", enteredID, "error", err)
		return Fail[*Position](err)
	}

	return Ok(pos)
}

// SyncAllDevices синхронизирует все устройства параллельно.
// Ошибки отдельных устройств не влияют на остальные и на общий результат.
func (s *Service) SyncAllDevices(ctx context.Context) Result[*SyncReport] {
	owner, err := s.users.CurrentUser(ctx)
	if err != nil {
		return Fail[*SyncReport](err)
	}

	devices, err := s.repo.GetUserDevices(ctx, owner)
	if err != nil {
		return Fail[*SyncReport](fmt.Errorf("ошибка получения устройств: %w", err))
	}

	start := time.Now()
	report := &SyncReport{Total: len(devices)}

	if len(devices) > 0 {
		s.refreshDevices(ctx, devices)
	}

	var mu gosync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(s.config.SyncConcurrency)

	for _, dev := range devices {
		g.Go(func() error {
			pos, err := s.fetchAndStorePosition(ctx, dev)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				report.Failed++
				s.log.Debug("Ошибка синхронизации устройства", "entered_id", dev.EnteredID, "error", err)
			case pos == nil:
				report.Empty++
			default:
				report.Synced++
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)
	s.updateStats(report)

	if report.Failed > 0 {
		s.log.Warn("Синхронизация завершена с ошибками",
			"total", report.Total,
			"failed", report.Failed,
			"duration", report.Duration,
		)
	} else {
		s.log.Info("Синхронизация успешно завершена",
			"total", report.Total,
			"synced", report.Synced,
			"duration", report.Duration,
		)
	}

	return Ok(report)
}

// GetUserDevicesWithPositions возвращает устройства с последними позициями.
// Для устойчивости экрана списка любая ошибка дает пустой список.
func (s *Service) GetUserDevicesWithPositions(ctx context.Context) Result[[]*DeviceWithPosition] {
	return DegradedRead(s.log, "get_user_devices_with_positions", func() ([]*DeviceWithPosition, error) {
		owner, err := s.users.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}

		items, err := s.repo.GetUserDevicesWithPositions(ctx, owner)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []*DeviceWithPosition{}
		}
		return items, nil
	}, []*DeviceWithPosition{})
}

// RemoveDevice удаляет устройство вместе с его позициями
func (s *Service) RemoveDevice(ctx context.Context, enteredID string) Result[struct{}] {
	owner, err := s.users.CurrentUser(ctx)
	if err != nil {
		return Fail[struct{}](err)
	}

	if err := s.repo.DeleteDevice(ctx, owner, enteredID); err != nil {
		return Fail[struct{}](fmt.Errorf("ошибка удаления устройства: %w", err))
	}

	s.log.Info("Устройство удалено", "entered_id", enteredID)
	return Ok(struct{}{})
}

// GetStats возвращает количество устройств и позиций пользователя
func (s *Service) GetStats(ctx context.Context) Result[*Stats] {
	owner, err := s.users.CurrentUser(ctx)
	if err != nil {
		return Fail[*Stats](err)
	}

	stats, err := s.repo.GetStats(ctx, owner)
	if err != nil {
		return Fail[*Stats](fmt.Errorf("ошибка получения статистики: %w", err))
	}

	return Ok(stats)
}

// ClearUserData удаляет все данные пользователя из кэша
func (s *Service) ClearUserData(ctx context.Context) Result[struct{}] {
	owner, err := s.users.CurrentUser(ctx)
	if err != nil {
		return Fail[struct{}](err)
	}

	if err := s.repo.ClearUserData(ctx, owner); err != nil {
		return Fail[struct{}](fmt.Errorf("ошибка очистки данных: %w", err))
	}

	s.log.Info("Данные пользователя очищены", "owner", owner)
	return Ok(struct{}{})
}

// GetTrack возвращает маршрут устройства по последним limit позициям
func (s *Service) GetTrack(ctx context.Context, enteredID string, limit int) Result[*Track] {
	owner, err := s.users.CurrentUser(ctx)
	if err != nil {
		return Fail[*Track](err)
	}

	if limit <= 0 {
		limit = defaultTrackLimit
	}

	dev, err := s.repo.GetDevice(ctx, owner, enteredID)
	if err != nil {
		return Fail[*Track](err)
	}

	positions, err := s.repo.GetPositions(ctx, owner, enteredID, limit)
	if err != nil {
		return Fail[*Track](fmt.Errorf("ошибка получения позиций: %w", err))
	}

	return Ok(BuildTrack(dev, positions))
}

// StartAutoSync запускает периодическую синхронизацию всех устройств
func (s *Service) StartAutoSync(ctx context.Context, interval time.Duration) error {
	return s.scheduler.Start(ctx, interval)
}

// StopAutoSync останавливает периодическую синхронизацию
func (s *Service) StopAutoSync() {
	s.scheduler.Stop()
}

// AutoSyncRunning проверяет, запущена ли периодическая синхронизация
func (s *Service) AutoSyncRunning() bool {
	return s.scheduler.Running()
}

// GetSyncStats возвращает накопленную статистику синхронизации
func (s *Service) GetSyncStats() SyncStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// ResetSyncStats сбрасывает статистику синхронизации
func (s *Service) ResetSyncStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = SyncStats{}
}

func (s *Service) autoSync(ctx context.Context) {
	if res := s.SyncAllDevices(ctx); !res.Success {
		s.log.Warn("Автосинхронизация не выполнена", "error", res.Error)
	}
}

func (s *Service) fetchAndStorePosition(ctx context.Context, dev *Device) (*Position, error) {
	remote, err := s.remote.GetDevicePosition(ctx, dev.RemoteID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения позиции с сервера: %w", err)
	}
	if remote == nil {
		return nil, nil
	}

	pos := remote.ToPosition(dev.Owner, dev.EnteredID)
	id, err := s.repo.SavePosition(ctx, pos)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения позиции: %w", err)
	}
	pos.ID = id

	return pos, nil
}

// refreshDevices обновляет статус и время последнего обновления устройств.
// Ошибка сервера здесь не мешает синхронизации позиций.
func (s *Service) refreshDevices(ctx context.Context, devices []*Device) {
	remotes, err := s.remote.ListDevices(ctx)
	if err != nil {
		s.log.Warn("Не удалось обновить статусы устройств", "error", err)
		return
	}

	byID := make(map[int64]RemoteDevice, len(remotes))
	for _, r := range remotes {
		byID[r.ID] = r
	}

	for _, dev := range devices {
		r, ok := byID[dev.RemoteID]
		if !ok {
			continue
		}

		state := RemoteState{Name: r.Name, Status: r.Status, LastUpdate: r.LastUpdate}
		if err := s.repo.UpdateRemoteState(ctx, dev.Owner, dev.EnteredID, state); err != nil {
			s.log.Warn("Не удалось обновить устройство", "entered_id", dev.EnteredID, "error", err)
		}
	}
}

func (s *Service) updateStats(report *SyncReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalSyncs++
	s.stats.LastSync = time.Now()
	s.stats.LastDuration = report.Duration
	s.stats.TotalSynced += report.Synced
	s.stats.TotalFailed += report.Failed
}
