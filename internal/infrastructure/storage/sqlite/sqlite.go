package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"tracker/internal/domain/device"
	"tracker/internal/infrastructure/migration"
)

// Storage локальный кэш устройств и позиций в файле SQLite
type Storage struct {
	db  *sql.DB
	log *slog.Logger
}

var _ device.Repository = (*Storage)(nil)

func New(path string, log *slog.Logger) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога данных: %w", err)
	}

	if err := migration.NewMigration(migration.SQLite, migration.SQLiteURL(path), nil).Up(); err != nil {
		return nil, fmt.Errorf("ошибка миграции базы данных: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	return &Storage{
		db:  db,
		log: log.With(slog.String("component", "sqlite_storage")),
	}, nil
}

// SaveDevice вставляет устройство или обновляет изменяемые поля по (owner, entered_id)
// одним запросом, поэтому одновременные вызовы для одного ключа не конфликтуют.
func (s *Storage) SaveDevice(ctx context.Context, d *device.Device) (int64, error) {
	now := time.Now().UTC()

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO devices (owner, entered_id, remote_id, custom_name, remote_name,
		                     status, last_update, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner, entered_id) DO UPDATE
		SET remote_id = excluded.remote_id,
		    custom_name = excluded.custom_name,
		    remote_name = excluded.remote_name,
		    status = excluded.status,
		    last_update = excluded.last_update,
		    updated_at = excluded.updated_at
		RETURNING id
	`, d.Owner, d.EnteredID, d.RemoteID, d.CustomName, d.RemoteName,
		d.Status, nullTime(d.LastUpdate), now, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка сохранения устройства: %w", err)
	}

	return id, nil
}

func (s *Storage) UpdateRemoteState(ctx context.Context, owner, enteredID string, state device.RemoteState) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE devices
		SET remote_name = ?, status = ?, last_update = ?, updated_at = ?
		WHERE owner = ? AND entered_id = ?
	`, state.Name, state.Status, nullTime(state.LastUpdate), time.Now().UTC(), owner, enteredID)
	if err != nil {
		return fmt.Errorf("ошибка обновления состояния устройства: %w", err)
	}
	return nil
}

func (s *Storage) SavePosition(ctx context.Context, p *device.Position) (int64, error) {
	var battery sql.NullFloat64
	if p.BatteryLevel != nil {
		battery = sql.NullFloat64{Float64: *p.BatteryLevel, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (owner, entered_id, remote_id, latitude, longitude, altitude,
		                       speed, course, accuracy, address, battery_level,
		                       device_time, fix_time, server_time, valid, outdated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Owner, p.EnteredID, p.RemoteID, p.Latitude, p.Longitude, p.Altitude,
		p.Speed, p.Course, p.Accuracy, p.Address, battery,
		p.DeviceTime.UTC(), p.FixTime.UTC(), p.ServerTime.UTC(), p.Valid, p.Outdated, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("ошибка сохранения позиции: %w", err)
	}

	return res.LastInsertId()
}

const deviceColumns = `id, owner, entered_id, remote_id, custom_name, remote_name,
	status, last_update, created_at, updated_at`

const positionColumns = `id, owner, entered_id, remote_id, latitude, longitude, altitude,
	speed, course, accuracy, address, battery_level, device_time, fix_time, server_time,
	valid, outdated, created_at`

func (s *Storage) GetUserDevices(ctx context.Context, owner string) ([]*device.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE owner = ? ORDER BY created_at DESC, id DESC`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения устройств: %w", err)
	}
	defer rows.Close()

	devices := make([]*device.Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}

	return devices, rows.Err()
}

func (s *Storage) GetDevice(ctx context.Context, owner, enteredID string) (*device.Device, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE owner = ? AND entered_id = ?`,
		owner, enteredID)

	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, device.ErrDeviceNotFound
	}
	return d, err
}

func (s *Storage) GetLatestPosition(ctx context.Context, owner, enteredID string) (*device.Position, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM positions
		 WHERE owner = ? AND entered_id = ? ORDER BY id DESC LIMIT 1`,
		owner, enteredID)

	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *Storage) GetPositions(ctx context.Context, owner, enteredID string, limit int) ([]*device.Position, error) {
	// отрицательный LIMIT в SQLite снимает ограничение
	if limit <= 0 {
		return []*device.Position{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+positionColumns+` FROM positions
		 WHERE owner = ? AND entered_id = ? ORDER BY id DESC LIMIT ?`,
		owner, enteredID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения позиций: %w", err)
	}
	defer rows.Close()

	positions := make([]*device.Position, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка получения позиций: %w", err)
	}

	// Выбраны новые первыми, возвращаем в порядке вставки
	slices.Reverse(positions)
	return positions, nil
}

func (s *Storage) GetUserDevicesWithPositions(ctx context.Context, owner string) ([]*device.DeviceWithPosition, error) {
	devices, err := s.GetUserDevices(ctx, owner)
	if err != nil {
		return nil, err
	}

	result := make([]*device.DeviceWithPosition, 0, len(devices))
	for _, d := range devices {
		pos, err := s.GetLatestPosition(ctx, owner, d.EnteredID)
		if err != nil {
			return nil, err
		}
		result = append(result, &device.DeviceWithPosition{Device: *d, Position: pos})
	}

	return result, nil
}

func (s *Storage) DeleteDevice(ctx context.Context, owner, enteredID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		// Сначала позиции, затем само устройство
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM positions WHERE owner = ? AND entered_id = ?`, owner, enteredID); err != nil {
			return fmt.Errorf("ошибка удаления позиций: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM devices WHERE owner = ? AND entered_id = ?`, owner, enteredID); err != nil {
			return fmt.Errorf("ошибка удаления устройства: %w", err)
		}
		return nil
	})
}

func (s *Storage) ClearUserData(ctx context.Context, owner string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM positions WHERE owner = ?`, owner); err != nil {
			return fmt.Errorf("ошибка удаления позиций: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE owner = ?`, owner); err != nil {
			return fmt.Errorf("ошибка удаления устройств: %w", err)
		}
		return nil
	})
}

func (s *Storage) GetStats(ctx context.Context, owner string) (*device.Stats, error) {
	var stats device.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM devices WHERE owner = ?),
			(SELECT COUNT(*) FROM positions WHERE owner = ?)
	`, owner, owner).Scan(&stats.Devices, &stats.Positions)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики: %w", err)
	}

	return &stats, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Warn("Не удалось откатить транзакцию", "error", rbErr)
		}
		return err
	}

	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(row scanner) (*device.Device, error) {
	var d device.Device
	var lastUpdate sql.NullTime

	err := row.Scan(&d.ID, &d.Owner, &d.EnteredID, &d.RemoteID, &d.CustomName, &d.RemoteName,
		&d.Status, &lastUpdate, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка чтения устройства: %w", err)
	}

	if lastUpdate.Valid {
		t := lastUpdate.Time
		d.LastUpdate = &t
	}

	return &d, nil
}

func scanPosition(row scanner) (*device.Position, error) {
	var p device.Position
	var battery sql.NullFloat64

	err := row.Scan(&p.ID, &p.Owner, &p.EnteredID, &p.RemoteID, &p.Latitude, &p.Longitude,
		&p.Altitude, &p.Speed, &p.Course, &p.Accuracy, &p.Address, &battery,
		&p.DeviceTime, &p.FixTime, &p.ServerTime, &p.Valid, &p.Outdated, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка чтения позиции: %w", err)
	}

	if battery.Valid {
		v := battery.Float64
		p.BatteryLevel = &v
	}

	return &p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
