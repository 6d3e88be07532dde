package postgres

import (
	"context"
	"time"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/entropy"
)

// CredentialRepository is an implementation of auth.CredentialRepository.
type CredentialRepository struct {
	client *Client
}

// ByID retrieves a Credential by its ID.
func (r *CredentialRepository) ByID(ctx context.Context, credentialID string) (*auth.Credential, error) {
	return r.get(ctx, "byID", credentialID)
}

// ByIdentifier retrieves a Credential by its type and identifier.
func (r *CredentialRepository) ByIdentifier(ctx context.Context, credentialType auth.CredentialType, identifier string) (*auth.Credential, error) {
	return r.get(ctx, "byIdentifier", credentialType, identifier)
}

// GetForUpdate retrieves a Credential to be updated and locks the row
// until the transaction completes.
func (r *CredentialRepository) GetForUpdate(ctx context.Context, credentialID string) (*auth.Credential, error) {
	return r.get(ctx, "forUpdate", credentialID)
}

// ByUserID retrieves all Credentials owned by a User.
func (r *CredentialRepository) ByUserID(ctx context.Context, userID string) ([]*auth.Credential, error) {
	rows, err := r.client.queryContext(ctx, r.client.credentialQ["byUserID"], userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	credentials := []*auth.Credential{}
	for rows.Next() {
		credential := auth.Credential{}
		if err = rows.Scan(credentialFields(&credential)...); err != nil {
			return nil, err
		}
		credentials = append(credentials, &credential)
	}

	return credentials, rows.Err()
}

// Create persists a new Credential to local storage.
func (r *CredentialRepository) Create(ctx context.Context, credential *auth.Credential) error {
	if credential.UserID == "" {
		return auth.ErrInvalidField("credential must belong to a user")
	}
	if credential.Identifier == "" {
		return auth.ErrInvalidField("credential identifier cannot be blank")
	}

	if credential.ID == "" {
		id, err := entropy.ID(r.client.entropy)
		if err != nil {
			return err
		}
		credential.ID = id
	}

	row := r.client.queryRowContext(
		ctx,
		r.client.credentialQ["insert"],
		credential.ID,
		credential.UserID,
		credential.Type,
		credential.Identifier,
		credential.Name,
		credential.Secret,
		credential.Counter,
		credential.AAGUID,
		credential.BackupEligible,
		credential.BackupState,
		credential.IsFlagged,
		credential.IsVerified,
		credential.IsEnabled,
		credential.LastUsedAt,
	)
	err := row.Scan(&credential.CreatedAt, &credential.UpdatedAt)
	return conflictOr(err, "credential is already registered")
}

// Update updates a Credential in storage.
func (r *CredentialRepository) Update(ctx context.Context, credential *auth.Credential) error {
	credential.UpdatedAt = time.Now().UTC()

	res, err := r.client.execContext(
		ctx,
		r.client.credentialQ["update"],
		credential.ID,
		credential.Identifier,
		credential.Name,
		credential.Secret,
		credential.Counter,
		credential.BackupState,
		credential.IsFlagged,
		credential.IsVerified,
		credential.IsEnabled,
		credential.LastUsedAt,
		credential.UpdatedAt,
	)
	if err = conflictOr(err, "credential is already registered"); err != nil {
		return err
	}

	return checkAffected(res, "credentials")
}

// Remove deletes a Credential owned by a User.
func (r *CredentialRepository) Remove(ctx context.Context, credentialID, userID string) error {
	res, err := r.client.execContext(ctx, r.client.credentialQ["delete"], credentialID, userID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return auth.ErrNotFound("credential not found")
	}

	return nil
}

func (r *CredentialRepository) get(ctx context.Context, query string, args ...interface{}) (*auth.Credential, error) {
	credential := auth.Credential{}
	row := r.client.queryRowContext(ctx, r.client.credentialQ[query], args...)
	if err := row.Scan(credentialFields(&credential)...); err != nil {
		return nil, err
	}

	return &credential, nil
}

func credentialFields(c *auth.Credential) []interface{} {
	return []interface{}{
		&c.ID, &c.UserID, &c.Type, &c.Identifier, &c.Name, &c.Secret, &c.Counter,
		&c.AAGUID, &c.BackupEligible, &c.BackupState, &c.IsFlagged, &c.IsVerified,
		&c.IsEnabled, &c.LastUsedAt, &c.CreatedAt, &c.UpdatedAt,
	}
}
