package postgres

import (
	"context"
	"time"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/entropy"
)

// DeviceTrustRepository is an implementation of auth.DeviceTrustRepository.
type DeviceTrustRepository struct {
	client *Client
}

// ByID retrieves a DeviceTrust by its ID.
func (r *DeviceTrustRepository) ByID(ctx context.Context, deviceID string) (*auth.DeviceTrust, error) {
	return r.get(ctx, "byID", deviceID)
}

// ByFingerprint retrieves the most recently updated DeviceTrust
// with a fingerprint.
func (r *DeviceTrustRepository) ByFingerprint(ctx context.Context, fingerprint string) (*auth.DeviceTrust, error) {
	return r.get(ctx, "byFingerprint", fingerprint)
}

// GetForUpdate retrieves a DeviceTrust to be updated and locks the row
// until the transaction completes.
func (r *DeviceTrustRepository) GetForUpdate(ctx context.Context, deviceID string) (*auth.DeviceTrust, error) {
	return r.get(ctx, "forUpdate", deviceID)
}

// ByUserID retrieves all devices of a User.
func (r *DeviceTrustRepository) ByUserID(ctx context.Context, userID string) ([]*auth.DeviceTrust, error) {
	rows, err := r.client.queryContext(ctx, r.client.deviceTrustQ["byUserID"], userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := []*auth.DeviceTrust{}
	for rows.Next() {
		device := auth.DeviceTrust{}
		if err = rows.Scan(deviceTrustFields(&device)...); err != nil {
			return nil, err
		}
		devices = append(devices, &device)
	}

	return devices, rows.Err()
}

// Create persists a new DeviceTrust to local storage.
func (r *DeviceTrustRepository) Create(ctx context.Context, device *auth.DeviceTrust) error {
	if device.UserID == "" {
		return auth.ErrInvalidField("device must belong to a user")
	}
	if len(device.PublicKey) == 0 {
		return auth.ErrInvalidField("device public key cannot be blank")
	}

	if device.ID == "" {
		id, err := entropy.ID(r.client.entropy)
		if err != nil {
			return err
		}
		device.ID = id
	}

	row := r.client.queryRowContext(
		ctx,
		r.client.deviceTrustQ["insert"],
		device.ID,
		device.UserID,
		device.Name,
		device.Fingerprint,
		device.PublicKey,
		device.TrustLevel,
		device.TrustScore,
		device.IsTrusted,
		device.TrustExpiresAt,
		device.LastSeenAt,
		device.LastVerifiedAt,
	)
	return row.Scan(&device.CreatedAt, &device.UpdatedAt)
}

// Update updates a DeviceTrust in storage.
func (r *DeviceTrustRepository) Update(ctx context.Context, device *auth.DeviceTrust) error {
	device.UpdatedAt = time.Now().UTC()

	res, err := r.client.execContext(
		ctx,
		r.client.deviceTrustQ["update"],
		device.ID,
		device.Name,
		device.Fingerprint,
		device.PublicKey,
		device.TrustLevel,
		device.TrustScore,
		device.IsTrusted,
		device.TrustExpiresAt,
		device.LastSeenAt,
		device.LastVerifiedAt,
		device.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return checkAffected(res, "devices")
}

func (r *DeviceTrustRepository) get(ctx context.Context, query string, args ...interface{}) (*auth.DeviceTrust, error) {
	device := auth.DeviceTrust{}
	row := r.client.queryRowContext(ctx, r.client.deviceTrustQ[query], args...)
	if err := row.Scan(deviceTrustFields(&device)...); err != nil {
		return nil, err
	}

	return &device, nil
}

func deviceTrustFields(d *auth.DeviceTrust) []interface{} {
	return []interface{}{
		&d.ID, &d.UserID, &d.Name, &d.Fingerprint, &d.PublicKey, &d.TrustLevel,
		&d.TrustScore, &d.IsTrusted, &d.TrustExpiresAt, &d.LastSeenAt,
		&d.LastVerifiedAt, &d.CreatedAt, &d.UpdatedAt,
	}
}
