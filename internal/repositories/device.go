package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/sptx/internal/models"
)

// PreferredDevice is the last playback target the user picked.
type PreferredDevice struct {
	ID        string
	Name      string
	UpdatedAt time.Time
}

// DeviceRepository remembers the preferred playback device per provider.
type DeviceRepository struct {
	db *sql.DB
}

// NewDeviceRepository creates a new [DeviceRepository] with the given database connection
func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Save(provider string, device models.Device) error {
	if device.ID == "" {
		return fmt.Errorf("device id is required")
	}

	query := `
		INSERT INTO preferred_devices (provider, device_id, device_name, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(provider) DO UPDATE SET
			device_id = excluded.device_id,
			device_name = excluded.device_name,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.Exec(query, provider, device.ID, device.Name); err != nil {
		return fmt.Errorf("failed to save preferred device: %w", err)
	}
	return nil
}

// Load returns the preferred device; ok is false when none was saved.
func (r *DeviceRepository) Load(provider string) (PreferredDevice, bool, error) {
	var (
		d         PreferredDevice
		updatedAt sql.NullTime
	)
	err := r.db.QueryRow(
		"SELECT device_id, device_name, updated_at FROM preferred_devices WHERE provider = ?", provider,
	).Scan(&d.ID, &d.Name, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PreferredDevice{}, false, nil
	}
	if err != nil {
		return PreferredDevice{}, false, fmt.Errorf("failed to query preferred device: %w", err)
	}
	d.UpdatedAt = updatedAt.Time
	return d, true, nil
}

func (r *DeviceRepository) Clear(provider string) error {
	if _, err := r.db.Exec("DELETE FROM preferred_devices WHERE provider = ?", provider); err != nil {
		return fmt.Errorf("failed to clear preferred device: %w", err)
	}
	return nil
}
