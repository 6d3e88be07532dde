package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
)

// uniqueViolation is the Postgres error code raised when a
// UNIQUE constraint fails.
const uniqueViolation = "23505"

// Client represents a client for PostgreSQL.
type Client struct {
	db      *sql.DB
	tx      *sql.Tx
	entropy io.Reader
	logger  log.Logger

	userRepository *UserRepository
	userQ          map[string]string

	credentialRepository *CredentialRepository
	credentialQ          map[string]string

	backupCodeRepository *BackupCodeRepository
	backupCodeQ          map[string]string

	deviceTrustRepository *DeviceTrustRepository
	deviceTrustQ          map[string]string

	loginHistoryRepository *LoginHistoryRepository
	loginHistoryQ          map[string]string
}

const (
	userColumns = `id, phone, email, password, display_name, mfa_enforced, minimum_acr,
				is_verified, created_at, updated_at`
	credentialColumns = `id, user_id, type, identifier, name, secret, counter, aaguid,
				backup_eligible, backup_state, is_flagged, is_verified, is_enabled,
				last_used_at, created_at, updated_at`
	deviceTrustColumns = `id, user_id, name, fingerprint, public_key, trust_level, trust_score,
				is_trusted, trust_expires_at, last_seen_at, last_verified_at,
				created_at, updated_at`
	loginHistoryColumns = `token_id, user_id, device_id, amr, acr, refresh_token_id,
				is_revoked, revoked_reason, ip_address, expires_at, created_at, updated_at`
)

func (c *Client) createQueries() {
	c.userQ = map[string]string{
		"forUpdate": `
			SELECT ` + userColumns + `
			FROM auth_user
			WHERE id = $1
			FOR UPDATE;
		`,
		"byPhone": `
			SELECT ` + userColumns + `
			FROM auth_user
			WHERE phone = $1;
		`,
		"byEmail": `
			SELECT ` + userColumns + `
			FROM auth_user
			WHERE email = $1;
		`,
		"byID": `
			SELECT ` + userColumns + `
			FROM auth_user
			WHERE id = $1;
		`,
		"update": `
			UPDATE auth_user
			SET phone=$2, email=$3, password=$4, display_name=$5, mfa_enforced=$6,
				minimum_acr=$7, is_verified=$8, updated_at=$9
			WHERE id=$1;
		`,
		"insert": `
			INSERT INTO auth_user (
				id, phone, email, password, display_name, mfa_enforced, minimum_acr, is_verified
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at;
		`,
	}

	c.credentialQ = map[string]string{
		"byID": `
			SELECT ` + credentialColumns + `
			FROM credential
			WHERE id = $1;
		`,
		"byIdentifier": `
			SELECT ` + credentialColumns + `
			FROM credential
			WHERE type = $1
			AND identifier = $2;
		`,
		"byUserID": `
			SELECT ` + credentialColumns + `
			FROM credential
			WHERE user_id = $1
			ORDER BY created_at;
		`,
		"forUpdate": `
			SELECT ` + credentialColumns + `
			FROM credential
			WHERE id = $1
			FOR UPDATE;
		`,
		"insert": `
			INSERT INTO credential (
				id, user_id, type, identifier, name, secret, counter, aaguid,
				backup_eligible, backup_state, is_flagged, is_verified, is_enabled, last_used_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING created_at, updated_at;
		`,
		"update": `
			UPDATE credential
			SET identifier=$2, name=$3, secret=$4, counter=$5, backup_state=$6,
				is_flagged=$7, is_verified=$8, is_enabled=$9, last_used_at=$10, updated_at=$11
			WHERE id = $1;
		`,
		"delete": `
			DELETE FROM credential WHERE id=$1 AND user_id=$2;
		`,
	}

	c.backupCodeQ = map[string]string{
		"byUserID": `
			SELECT id, user_id, code_hash, created_at
			FROM backup_code
			WHERE user_id = $1;
		`,
		"insert": `
			INSERT INTO backup_code (id, user_id, code_hash)
			VALUES ($1, $2, $3)
			RETURNING created_at;
		`,
		"delete": `
			DELETE FROM backup_code WHERE id=$1 AND user_id=$2;
		`,
		"deleteByUserID": `
			DELETE FROM backup_code WHERE user_id=$1;
		`,
	}

	c.deviceTrustQ = map[string]string{
		"byID": `
			SELECT ` + deviceTrustColumns + `
			FROM device_trust
			WHERE id = $1;
		`,
		"byFingerprint": `
			SELECT ` + deviceTrustColumns + `
			FROM device_trust
			WHERE fingerprint = $1
			ORDER BY updated_at DESC
			LIMIT 1;
		`,
		"byUserID": `
			SELECT ` + deviceTrustColumns + `
			FROM device_trust
			WHERE user_id = $1
			ORDER BY created_at;
		`,
		"forUpdate": `
			SELECT ` + deviceTrustColumns + `
			FROM device_trust
			WHERE id = $1
			FOR UPDATE;
		`,
		"insert": `
			INSERT INTO device_trust (
				id, user_id, name, fingerprint, public_key, trust_level, trust_score,
				is_trusted, trust_expires_at, last_seen_at, last_verified_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING created_at, updated_at;
		`,
		"update": `
			UPDATE device_trust
			SET name=$2, fingerprint=$3, public_key=$4, trust_level=$5, trust_score=$6,
				is_trusted=$7, trust_expires_at=$8, last_seen_at=$9, last_verified_at=$10,
				updated_at=$11
			WHERE id = $1;
		`,
	}

	c.loginHistoryQ = map[string]string{
		"byTokenID": `
			SELECT ` + loginHistoryColumns + `
			FROM login_history
			WHERE token_id = $1;
		`,
		"byUserID": `
			SELECT ` + loginHistoryColumns + `
			FROM login_history
			WHERE user_id = $1
			ORDER BY created_at
			DESC
			LIMIT $2
			OFFSET $3;
		`,
		"active": `
			SELECT ` + loginHistoryColumns + `
			FROM login_history
			WHERE user_id = $1
			AND is_revoked = false
			AND expires_at > $2;
		`,
		"forUpdate": `
			SELECT ` + loginHistoryColumns + `
			FROM login_history
			WHERE token_id = $1
			FOR UPDATE;
		`,
		"update": `
			UPDATE login_history
			SET refresh_token_id=$2, is_revoked=$3, revoked_reason=$4, ip_address=$5,
				expires_at=$6, updated_at=$7
			WHERE token_id = $1;
		`,
		"insert": `
			INSERT INTO login_history (
				token_id, user_id, device_id, amr, acr, refresh_token_id,
				is_revoked, revoked_reason, ip_address, expires_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at;
		`,
		"revokeByUserID": `
			UPDATE login_history
			SET is_revoked=true, revoked_reason=$2, updated_at=$3
			WHERE user_id = $1
			AND is_revoked = false
			AND expires_at > $3;
		`,
		"deleteExpired": `
			DELETE FROM login_history WHERE expires_at < $1;
		`,
	}
}

// NewWithTransaction returns a new client with a transaction. All
// repository operations using the new client will default to the transaction.
func (c *Client) NewWithTransaction(ctx context.Context) (auth.RepositoryManager, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	newClient := *c
	newClient.tx = tx
	newClient.userRepository = &UserRepository{client: &newClient, password: c.userRepository.password}
	newClient.credentialRepository = &CredentialRepository{client: &newClient}
	newClient.backupCodeRepository = &BackupCodeRepository{client: &newClient}
	newClient.deviceTrustRepository = &DeviceTrustRepository{client: &newClient}
	newClient.loginHistoryRepository = &LoginHistoryRepository{client: &newClient}
	return &newClient, nil
}

// WithAtomic performs an operation within a transaction. If the operation
// is successful it commits it, otherwise the operation will be rolledback.
func (c *Client) WithAtomic(operation func() (interface{}, error)) (interface{}, error) {
	if c.tx == nil {
		return nil, fmt.Errorf("cannot complete operation outside of transaction")
	}

	defer func() {
		c.tx = nil
	}()

	entity, err := operation()

	if err != nil {
		if dbErr := c.tx.Rollback(); dbErr != nil {
			err = fmt.Errorf("%v: %w", dbErr, err)
		}
		return nil, err
	}

	err = c.tx.Commit()
	if err != nil {
		return entity, fmt.Errorf("commit failed: %w", err)
	}

	return entity, nil
}

// User returns a UserRepository.
func (c *Client) User() auth.UserRepository {
	return c.userRepository
}

// Credential returns a CredentialRepository.
func (c *Client) Credential() auth.CredentialRepository {
	return c.credentialRepository
}

// BackupCode returns a BackupCodeRepository.
func (c *Client) BackupCode() auth.BackupCodeRepository {
	return c.backupCodeRepository
}

// DeviceTrust returns a DeviceTrustRepository.
func (c *Client) DeviceTrust() auth.DeviceTrustRepository {
	return c.deviceTrustRepository
}

// LoginHistory returns a LoginHistoryRepository.
func (c *Client) LoginHistory() auth.LoginHistoryRepository {
	return c.loginHistoryRepository
}

func (c *Client) queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if c.tx != nil {
		return c.tx.QueryRowContext(ctx, query, args...)
	}

	return c.db.QueryRowContext(ctx, query, args...)
}

func (c *Client) queryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if c.tx != nil {
		return c.tx.QueryContext(ctx, query, args...)
	}

	return c.db.QueryContext(ctx, query, args...)
}

func (c *Client) execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if c.tx != nil {
		return c.tx.ExecContext(ctx, query, args...)
	}

	return c.db.ExecContext(ctx, query, args...)
}

// conflictOr maps a unique constraint violation to ErrConflict.
func conflictOr(err error, message string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return auth.ErrConflict(message)
	}

	return err
}

// checkAffected ensures a write touched exactly one row.
func checkAffected(res sql.Result, entity string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows != 1 {
		return fmt.Errorf("wrong number of %s updated: %d", entity, rows)
	}
	return nil
}
