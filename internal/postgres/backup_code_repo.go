package postgres

import (
	"context"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/entropy"
)

// BackupCodeRepository is an implementation of auth.BackupCodeRepository.
type BackupCodeRepository struct {
	client *Client
}

// ByUserID retrieves the unused backup codes of a User.
func (r *BackupCodeRepository) ByUserID(ctx context.Context, userID string) ([]*auth.BackupCode, error) {
	rows, err := r.client.queryContext(ctx, r.client.backupCodeQ["byUserID"], userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := []*auth.BackupCode{}
	for rows.Next() {
		code := auth.BackupCode{}
		if err = rows.Scan(&code.ID, &code.UserID, &code.CodeHash, &code.CreatedAt); err != nil {
			return nil, err
		}
		codes = append(codes, &code)
	}

	return codes, rows.Err()
}

// Create persists a hashed backup code.
func (r *BackupCodeRepository) Create(ctx context.Context, code *auth.BackupCode) error {
	if code.ID == "" {
		id, err := entropy.ID(r.client.entropy)
		if err != nil {
			return err
		}
		code.ID = id
	}

	row := r.client.queryRowContext(
		ctx,
		r.client.backupCodeQ["insert"],
		code.ID,
		code.UserID,
		code.CodeHash,
	)
	return row.Scan(&code.CreatedAt)
}

// Remove consumes a single backup code. A code that was already
// consumed by a concurrent request returns ErrNotFound.
func (r *BackupCodeRepository) Remove(ctx context.Context, codeID, userID string) error {
	n, err := r.exec(ctx, "delete", codeID, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrNotFound("backup code not found")
	}
	return nil
}

// RemoveByUserID deletes every backup code of a User.
func (r *BackupCodeRepository) RemoveByUserID(ctx context.Context, userID string) (int, error) {
	return r.exec(ctx, "deleteByUserID", userID)
}

func (r *BackupCodeRepository) exec(ctx context.Context, query string, args ...interface{}) (int, error) {
	res, err := r.client.execContext(ctx, r.client.backupCodeQ[query], args...)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}
