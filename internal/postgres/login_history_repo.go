package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	auth "github.com/strategiz/authcore"
)

// LoginHistoryRepository is an implementation of auth.LoginHistoryRepository.
type LoginHistoryRepository struct {
	client *Client
}

// ByTokenID retrieves a LoginHistory record with matching session ID.
func (r *LoginHistoryRepository) ByTokenID(ctx context.Context, tokenID string) (*auth.LoginHistory, error) {
	return r.get(ctx, "byTokenID", tokenID)
}

// GetForUpdate retrieves a LoginHistory to be updated and locks the row
// until the transaction completes.
func (r *LoginHistoryRepository) GetForUpdate(ctx context.Context, tokenID string) (*auth.LoginHistory, error) {
	return r.get(ctx, "forUpdate", tokenID)
}

// ByUserID retrieves all LoginHistory records associated with a User.
func (r *LoginHistoryRepository) ByUserID(ctx context.Context, userID string, limit, offset int) ([]*auth.LoginHistory, error) {
	return r.list(ctx, "byUserID", userID, limit, offset)
}

// Active retrieves the sessions of a User that are neither
// revoked nor expired.
func (r *LoginHistoryRepository) Active(ctx context.Context, userID string) ([]*auth.LoginHistory, error) {
	return r.list(ctx, "active", userID, time.Now().UTC())
}

// Create persists a new LoginHistory to storage.
func (r *LoginHistoryRepository) Create(ctx context.Context, login *auth.LoginHistory) error {
	if login.TokenID == "" || login.UserID == "" {
		return auth.ErrInvalidField("session must have a token ID and user")
	}

	row := r.client.queryRowContext(
		ctx,
		r.client.loginHistoryQ["insert"],
		login.TokenID,
		login.UserID,
		login.DeviceID,
		pq.Array(amrStrings(login.AMR)),
		login.ACR,
		login.RefreshTokenID,
		login.IsRevoked,
		login.RevokedReason,
		login.IPAddress,
		login.ExpiresAt,
	)
	return row.Scan(
		&login.CreatedAt,
		&login.UpdatedAt,
	)
}

// Update updates a LoginHistory in storage.
func (r *LoginHistoryRepository) Update(ctx context.Context, login *auth.LoginHistory) error {
	login.UpdatedAt = time.Now().UTC()

	res, err := r.client.execContext(
		ctx,
		r.client.loginHistoryQ["update"],
		login.TokenID,
		login.RefreshTokenID,
		login.IsRevoked,
		login.RevokedReason,
		login.IPAddress,
		login.ExpiresAt,
		login.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update: %w", err)
	}

	return checkAffected(res, "sessions")
}

// RevokeByUserID revokes every active session of a User.
func (r *LoginHistoryRepository) RevokeByUserID(ctx context.Context, userID, reason string) (int, error) {
	res, err := r.client.execContext(
		ctx,
		r.client.loginHistoryQ["revokeByUserID"],
		userID,
		reason,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}

	return int(n), nil
}

// RemoveExpired deletes sessions that expired before a point in time.
func (r *LoginHistoryRepository) RemoveExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := r.client.execContext(ctx, r.client.loginHistoryQ["deleteExpired"], before)
	if err != nil {
		return 0, fmt.Errorf("failed to remove expired sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}

	return int(n), nil
}

func (r *LoginHistoryRepository) get(ctx context.Context, query string, args ...interface{}) (*auth.LoginHistory, error) {
	login := auth.LoginHistory{}
	amr := []string{}
	row := r.client.queryRowContext(ctx, r.client.loginHistoryQ[query], args...)
	if err := row.Scan(loginHistoryFields(&login, &amr)...); err != nil {
		return nil, err
	}
	login.AMR = amrFactors(amr)

	return &login, nil
}

func (r *LoginHistoryRepository) list(ctx context.Context, query string, args ...interface{}) ([]*auth.LoginHistory, error) {
	rows, err := r.client.queryContext(ctx, r.client.loginHistoryQ[query], args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	logins := make([]*auth.LoginHistory, 0)
	for rows.Next() {
		login := auth.LoginHistory{}
		amr := []string{}
		if err := rows.Scan(loginHistoryFields(&login, &amr)...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		login.AMR = amrFactors(amr)
		logins = append(logins, &login)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("completed with error: %w", err)
	}

	return logins, nil
}

func loginHistoryFields(l *auth.LoginHistory, amr *[]string) []interface{} {
	return []interface{}{
		&l.TokenID, &l.UserID, &l.DeviceID, pq.Array(amr), &l.ACR, &l.RefreshTokenID,
		&l.IsRevoked, &l.RevokedReason, &l.IPAddress, &l.ExpiresAt, &l.CreatedAt,
		&l.UpdatedAt,
	}
}

func amrStrings(amr []auth.FactorType) []string {
	s := make([]string, len(amr))
	for i, f := range amr {
		s[i] = string(f)
	}
	return s
}

func amrFactors(amr []string) []auth.FactorType {
	f := make([]auth.FactorType, len(amr))
	for i, s := range amr {
		f[i] = auth.FactorType(s)
	}
	return f
}
