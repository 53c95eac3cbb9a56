package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// DeviceRepository manages auth codes and the devices registered with them.
type DeviceRepository interface {
	CreateAuthCode(ctx context.Context, code *domain.AuthCode) error
	GetAuthCodeByCode(ctx context.Context, code string) (*domain.AuthCode, error)
	CreateDevice(ctx context.Context, device *domain.Device) error
	GetDeviceByID(ctx context.Context, id string) (*domain.Device, error)
}

type deviceRepository struct {
	db DB
}

// NewDeviceRepository builds repository.
func NewDeviceRepository(db DB) DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) CreateAuthCode(ctx context.Context, code *domain.AuthCode) error {
	const query = `
        INSERT INTO auth_codes (owner_id, code, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, code.OwnerID, code.Code, code.IsActive).Scan(&code.ID, &code.CreatedAt)
	return mapInsertError(err)
}

func (r *deviceRepository) GetAuthCodeByCode(ctx context.Context, code string) (*domain.AuthCode, error) {
	const query = `SELECT id, owner_id, code, is_active, created_at FROM auth_codes WHERE code=$1`
	var ac domain.AuthCode
	if err := r.db.QueryRow(ctx, query, code).Scan(&ac.ID, &ac.OwnerID, &ac.Code, &ac.IsActive, &ac.CreatedAt); err != nil {
		return nil, err
	}
	return &ac, nil
}

// CreateDevice inserts only while the auth code is active. FOR SHARE waits out a
// concurrent deactivation cascade and re-checks is_active once it commits.
func (r *deviceRepository) CreateDevice(ctx context.Context, device *domain.Device) error {
	const query = `
        WITH code AS (
            SELECT id FROM auth_codes WHERE id=$1 AND is_active FOR SHARE
        )
        INSERT INTO dispositivos (auth_code_id, device_name, user_email, user_name, os_name, os_version, app_version, ip_address, is_active, last_seen)
        SELECT code.id, $2, $3, $4, $5, $6, $7, $8, $9, NOW() FROM code
        RETURNING id, last_seen, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		device.AuthCodeID,
		device.DeviceName,
		device.UserEmail,
		device.UserName,
		device.OSName,
		device.OSVersion,
		device.AppVersion,
		device.IPAddress,
		device.IsActive,
	).Scan(&device.ID, &device.LastSeen, &device.CreatedAt, &device.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInactiveAuthCode
	}
	return err
}

func (r *deviceRepository) GetDeviceByID(ctx context.Context, id string) (*domain.Device, error) {
	const query = `
        SELECT d.id, d.auth_code_id, ac.owner_id, d.device_name, d.user_email, d.user_name, d.os_name, d.os_version,
               d.app_version, d.ip_address, d.is_active, d.last_seen, d.created_at, d.updated_at
        FROM dispositivos d LEFT JOIN auth_codes ac ON ac.id = d.auth_code_id
        WHERE d.id=$1`
	var d domain.Device
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.AuthCodeID,
		&d.OwnerID,
		&d.DeviceName,
		&d.UserEmail,
		&d.UserName,
		&d.OSName,
		&d.OSVersion,
		&d.AppVersion,
		&d.IPAddress,
		&d.IsActive,
		&d.LastSeen,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}
