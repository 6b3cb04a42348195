package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"tracker/internal/domain/device"
)

type DeviceRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewDeviceRepository(pool *pgxpool.Pool, log *slog.Logger) *DeviceRepository {
	return &DeviceRepository{
		pool: pool,
		log:  log.With("component", "device_repository"),
	}
}

const deviceColumns = `id, owner, entered_id, remote_id, custom_name, remote_name,
	status, last_update, created_at, updated_at`

const positionColumns = `id, owner, entered_id, remote_id, latitude, longitude, altitude,
	speed, course, accuracy, address, battery_level, device_time, fix_time, server_time,
	valid, outdated, created_at`

func (r *DeviceRepository) SaveDevice(ctx context.Context, d *device.Device) (int64, error) {
	const query = `
		INSERT INTO devices (owner, entered_id, remote_id, custom_name, remote_name, status, last_update)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner, entered_id) DO UPDATE
		SET remote_id = EXCLUDED.remote_id,
		    custom_name = EXCLUDED.custom_name,
		    remote_name = EXCLUDED.remote_name,
		    status = EXCLUDED.status,
		    last_update = EXCLUDED.last_update,
		    updated_at = NOW()
		RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		d.Owner, d.EnteredID, d.RemoteID, d.CustomName, d.RemoteName, d.Status, d.LastUpdate,
	).Scan(&id)
	if err != nil {
		r.log.Error("failed to save device", "entered_id", d.EnteredID, "error", err)
		return 0, fmt.Errorf("save device: %w", err)
	}

	return id, nil
}

func (r *DeviceRepository) UpdateRemoteState(ctx context.Context, owner, enteredID string, state device.RemoteState) error {
	const query = `
		UPDATE devices
		SET remote_name = $3, status = $4, last_update = $5, updated_at = NOW()
		WHERE owner = $1 AND entered_id = $2`

	if _, err := r.pool.Exec(ctx, query, owner, enteredID, state.Name, state.Status, state.LastUpdate); err != nil {
		return fmt.Errorf("update remote state: %w", err)
	}
	return nil
}

func (r *DeviceRepository) SavePosition(ctx context.Context, p *device.Position) (int64, error) {
	const query = `
		INSERT INTO positions (owner, entered_id, remote_id, latitude, longitude, altitude,
		                       speed, course, accuracy, address, battery_level,
		                       device_time, fix_time, server_time, valid, outdated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		p.Owner, p.EnteredID, p.RemoteID, p.Latitude, p.Longitude, p.Altitude,
		p.Speed, p.Course, p.Accuracy, p.Address, p.BatteryLevel,
		p.DeviceTime, p.FixTime, p.ServerTime, p.Valid, p.Outdated,
	).Scan(&id)
	if err != nil {
		r.log.Error("failed to save position", "entered_id", p.EnteredID, "error", err)
		return 0, fmt.Errorf("save position: %w", err)
	}

	return id, nil
}

func (r *DeviceRepository) GetUserDevices(ctx context.Context, owner string) ([]*device.Device, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE owner = $1 ORDER BY created_at DESC, id DESC`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
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

func (r *DeviceRepository) GetDevice(ctx context.Context, owner, enteredID string) (*device.Device, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE owner = $1 AND entered_id = $2`,
		owner, enteredID)

	d, err := scanDevice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, device.ErrDeviceNotFound
	}
	return d, err
}

func (r *DeviceRepository) GetLatestPosition(ctx context.Context, owner, enteredID string) (*device.Position, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+positionColumns+` FROM positions
		 WHERE owner = $1 AND entered_id = $2 ORDER BY id DESC LIMIT 1`,
		owner, enteredID)

	p, err := scanPosition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *DeviceRepository) GetPositions(ctx context.Context, owner, enteredID string, limit int) ([]*device.Position, error) {
	if limit <= 0 {
		return []*device.Position{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+positionColumns+` FROM positions
		 WHERE owner = $1 AND entered_id = $2 ORDER BY id DESC LIMIT $3`,
		owner, enteredID, limit)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
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
		return nil, fmt.Errorf("list positions: %w", err)
	}

	slices.Reverse(positions)
	return positions, nil
}

func (r *DeviceRepository) GetUserDevicesWithPositions(ctx context.Context, owner string) ([]*device.DeviceWithPosition, error) {
	const query = `
		SELECT d.id, d.owner, d.entered_id, d.remote_id, d.custom_name, d.remote_name,
		       d.status, d.last_update, d.created_at, d.updated_at,
		       p.id, p.owner, p.entered_id, p.remote_id, p.latitude, p.longitude, p.altitude,
		       p.speed, p.course, p.accuracy, p.address, p.battery_level,
		       p.device_time, p.fix_time, p.server_time, p.valid, p.outdated, p.created_at
		FROM devices d
		LEFT JOIN LATERAL (
			SELECT * FROM positions
			WHERE owner = d.owner AND entered_id = d.entered_id
			ORDER BY id DESC LIMIT 1
		) p ON TRUE
		WHERE d.owner = $1
		ORDER BY d.created_at DESC, d.id DESC`

	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("list devices with positions: %w", err)
	}
	defer rows.Close()

	result := make([]*device.DeviceWithPosition, 0)
	for rows.Next() {
		var item device.DeviceWithPosition
		var pos nullablePosition

		err := rows.Scan(
			&item.ID, &item.Owner, &item.EnteredID, &item.RemoteID, &item.CustomName, &item.RemoteName,
			&item.Status, &item.LastUpdate, &item.CreatedAt, &item.UpdatedAt,
			&pos.ID, &pos.Owner, &pos.EnteredID, &pos.RemoteID, &pos.Latitude, &pos.Longitude, &pos.Altitude,
			&pos.Speed, &pos.Course, &pos.Accuracy, &pos.Address, &pos.BatteryLevel,
			&pos.DeviceTime, &pos.FixTime, &pos.ServerTime, &pos.Valid, &pos.Outdated, &pos.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan device with position: %w", err)
		}

		item.Position = pos.toPosition()
		result = append(result, &item)
	}

	return result, rows.Err()
}

func (r *DeviceRepository) DeleteDevice(ctx context.Context, owner, enteredID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM positions WHERE owner = $1 AND entered_id = $2`, owner, enteredID); err != nil {
			return fmt.Errorf("delete positions: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM devices WHERE owner = $1 AND entered_id = $2`, owner, enteredID); err != nil {
			return fmt.Errorf("delete device: %w", err)
		}
		return nil
	})
}

func (r *DeviceRepository) ClearUserData(ctx context.Context, owner string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM positions WHERE owner = $1`, owner); err != nil {
			return fmt.Errorf("delete positions: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM devices WHERE owner = $1`, owner); err != nil {
			return fmt.Errorf("delete devices: %w", err)
		}
		return nil
	})
}

func (r *DeviceRepository) GetStats(ctx context.Context, owner string) (*device.Stats, error) {
	var stats device.Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM devices WHERE owner = $1),
			(SELECT COUNT(*) FROM positions WHERE owner = $1)`,
		owner).Scan(&stats.Devices, &stats.Positions)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	return &stats, nil
}

func scanDevice(row pgx.Row) (*device.Device, error) {
	var d device.Device
	err := row.Scan(&d.ID, &d.Owner, &d.EnteredID, &d.RemoteID, &d.CustomName, &d.RemoteName,
		&d.Status, &d.LastUpdate, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan device: %w", err)
	}
	return &d, nil
}

func scanPosition(row pgx.Row) (*device.Position, error) {
	var p device.Position
	err := row.Scan(&p.ID, &p.Owner, &p.EnteredID, &p.RemoteID, &p.Latitude, &p.Longitude,
		&p.Altitude, &p.Speed, &p.Course, &p.Accuracy, &p.Address, &p.BatteryLevel,
		&p.DeviceTime, &p.FixTime, &p.ServerTime, &p.Valid, &p.Outdated, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan position: %w", err)
	}
	return &p, nil
}

// nullablePosition строка позиции из LEFT JOIN, все поля могут быть NULL
type nullablePosition struct {
	ID           *int64
	Owner        *string
	EnteredID    *string
	RemoteID     *int64
	Latitude     *float64
	Longitude    *float64
	Altitude     *float64
	Speed        *float64
	Course       *float64
	Accuracy     *float64
	Address      *string
	BatteryLevel *float64
	DeviceTime   *time.Time
	FixTime      *time.Time
	ServerTime   *time.Time
	Valid        *bool
	Outdated     *bool
	CreatedAt    *time.Time
}

func (n nullablePosition) toPosition() *device.Position {
	if n.ID == nil {
		return nil
	}

	return &device.Position{
		ID:           *n.ID,
		Owner:        *n.Owner,
		EnteredID:    *n.EnteredID,
		RemoteID:     *n.RemoteID,
		Latitude:     *n.Latitude,
		Longitude:    *n.Longitude,
		Altitude:     *n.Altitude,
		Speed:        *n.Speed,
		Course:       *n.Course,
		Accuracy:     *n.Accuracy,
		Address:      *n.Address,
		BatteryLevel: n.BatteryLevel,
		DeviceTime:   *n.DeviceTime,
		FixTime:      *n.FixTime,
		ServerTime:   *n.ServerTime,
		Valid:        *n.Valid,
		Outdated:     *n.Outdated,
		CreatedAt:    *n.CreatedAt,
	}
}
