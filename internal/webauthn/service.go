// Package webauthn implements passkey registration and assertion.
package webauthn

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	webauthnProto "github.com/go-webauthn/webauthn/protocol"
	webauthnLib "github.com/go-webauthn/webauthn/webauthn"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/entropy"
)

// Webauthner is an interface to go-webauthn.
type Webauthner interface {
	BeginRegistration(user webauthnLib.User, opts ...webauthnLib.RegistrationOption) (*webauthnProto.CredentialCreation, *webauthnLib.SessionData, error)
	CreateCredential(user webauthnLib.User, session webauthnLib.SessionData, parsed *webauthnProto.ParsedCredentialCreationData) (*webauthnLib.Credential, error)
	BeginLogin(user webauthnLib.User, opts ...webauthnLib.LoginOption) (*webauthnProto.CredentialAssertion, *webauthnLib.SessionData, error)
	ValidateLogin(user webauthnLib.User, session webauthnLib.SessionData, parsed *webauthnProto.ParsedCredentialAssertionData) (*webauthnLib.Credential, error)
}

type ceremony string

const (
	registration ceremony = "registration"
	login        ceremony = "login"
)

// WebAuthn implements the WebAuthn authentication protocol.
// Under the hood it defers the actual validation to the go-webauthn
// library and wraps the service's domain entities to provide
// compatibility with the third party library.
type WebAuthn struct {
	logger log.Logger
	// displayName is the site display name.
	displayName string
	// domain is the relying party ID.
	domain string
	// requestOrigins are the accepted origins for
	// authentication requests.
	requestOrigins []string
	// sessionTTL is how long a ceremony's challenge is kept.
	sessionTTL time.Duration
	// lib is the underlying WebAuthn library
	// used by this adapter.
	lib Webauthner
	// db is a redis DB to store ceremony sessions.
	db redis.UniversalClient
	// repoMngr is an instance of a RepositoryManager
	// to manage domain entitites.
	repoMngr auth.RepositoryManager
	clock    func() time.Time
}

// BeginSignUp starts registration of a new passkey for a user.
func (w *WebAuthn) BeginSignUp(ctx context.Context, user *auth.User) ([]byte, error) {
	creds, err := w.passkeys(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	wu := User{User: *user, Credentials: creds}

	// Authenticators refuse to register a second passkey for
	// a credential they already hold.
	exclusions := make([]webauthnProto.CredentialDescriptor, 0, len(creds))
	for _, c := range wu.WebAuthnCredentials() {
		exclusions = append(exclusions, c.Descriptor())
	}

	options, session, err := w.lib.BeginRegistration(&wu, webauthnLib.WithExclusions(exclusions))
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize webauthn registration")
	}

	return w.storeSession(ctx, registration, user.ID, options, session)
}

// FinishSignUp verifies an attestation and returns the new passkey.
// The credential is not persisted.
func (w *WebAuthn) FinishSignUp(ctx context.Context, user *auth.User, attestation []byte) (*auth.Credential, error) {
	session, err := w.consumeSession(ctx, registration, user.ID)
	if err != nil {
		return nil, err
	}

	parsed, err := webauthnProto.ParseCredentialCreationResponseBody(bytes.NewReader(attestation))
	if err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid attestation"), err.Error())
	}

	wu := User{User: *user}
	credential, err := w.lib.CreateCredential(&wu, *session, parsed)
	if err != nil {
		return nil, errors.Wrap(auth.ErrMismatch("passkey registration failed"), err.Error())
	}

	credentialID, err := entropy.ID(nil)
	if err != nil {
		return nil, err
	}

	return &auth.Credential{
		ID:             credentialID,
		UserID:         user.ID,
		Type:           auth.CredentialPasskey,
		Identifier:     encodeID(credential.ID),
		Name:           "Passkey",
		Secret:         credential.PublicKey,
		Counter:        credential.Authenticator.SignCount,
		AAGUID:         credential.Authenticator.AAGUID,
		BackupEligible: credential.Flags.BackupEligible,
		BackupState:    credential.Flags.BackupState,
		IsVerified:     true,
		IsEnabled:      true,
	}, nil
}

// BeginLogin starts an assertion ceremony for a user's passkeys.
func (w *WebAuthn) BeginLogin(ctx context.Context, user *auth.User) ([]byte, error) {
	creds, err := w.passkeys(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, auth.ErrNotFound("no passkeys registered")
	}

	wu := User{User: *user, Credentials: creds}
	assertion, session, err := w.lib.BeginLogin(&wu)
	if err != nil {
		return nil, errors.Wrap(err, "webauthn login request failed")
	}

	return w.storeSession(ctx, login, user.ID, assertion, session)
}

// FinishLogin determines if a user proved ownership of a passkey.
// The signature counter must increase with every assertion. A
// counter that does not is treated as a cloned authenticator and
// flags the credential.
func (w *WebAuthn) FinishLogin(ctx context.Context, user *auth.User, assertion []byte) (*auth.FactorResult, error) {
	session, err := w.consumeSession(ctx, login, user.ID)
	if auth.ErrorCode(err) == auth.EExpired {
		return &auth.FactorResult{UserID: user.ID, Reason: auth.ReasonExpired}, nil
	}
	if err != nil {
		return nil, err
	}

	parsed, err := webauthnProto.ParseCredentialRequestResponseBody(bytes.NewReader(assertion))
	if err != nil {
		return &auth.FactorResult{UserID: user.ID, Reason: auth.ReasonInvalidSignature}, nil
	}

	stored, err := w.repoMngr.Credential().ByIdentifier(ctx, auth.CredentialPasskey, encodeID(parsed.RawID))
	if err == sql.ErrNoRows {
		return &auth.FactorResult{UserID: user.ID, Reason: auth.ReasonNotFound}, nil
	}
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("credential store unavailable"), err.Error())
	}
	if stored.UserID != user.ID {
		return &auth.FactorResult{UserID: user.ID, Reason: auth.ReasonNotFound}, nil
	}
	if !stored.IsActive() {
		return &auth.FactorResult{UserID: user.ID, Reason: auth.ReasonRevoked}, nil
	}

	wu := User{User: *user, Credentials: []*auth.Credential{stored}}
	if _, err = w.lib.ValidateLogin(&wu, *session, parsed); err != nil {
		level.Info(w.logger).Log(
			"message", "passkey assertion rejected",
			"user_id", user.ID,
			"error", err,
			"source", "webauthn.FinishLogin",
		)
		return &auth.FactorResult{UserID: user.ID, Reason: auth.ReasonInvalidSignature}, nil
	}

	counter := parsed.Response.AuthenticatorData.Counter
	backupState := parsed.Response.AuthenticatorData.Flags.HasBackupState()

	tx, err := w.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}

	replayed, err := tx.WithAtomic(func() (interface{}, error) {
		cred, err := tx.Credential().GetForUpdate(ctx, stored.ID)
		if err != nil {
			return nil, err
		}

		if counter <= cred.Counter {
			cred.IsFlagged = true
			if err = tx.Credential().Update(ctx, cred); err != nil {
				return nil, err
			}
			return true, nil
		}

		cred.Counter = counter
		cred.BackupState = backupState
		cred.LastUsedAt = sql.NullTime{Time: w.clock(), Valid: true}
		if err = tx.Credential().Update(ctx, cred); err != nil {
			return nil, err
		}
		return false, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to update passkey counter")
	}

	if replayed.(bool) {
		level.Warn(w.logger).Log(
			"message", "passkey counter did not increase",
			"security_event", "passkey_clone_suspected",
			"user_id", user.ID,
			"credential_id", stored.ID,
			"counter", counter,
			"source", "webauthn.FinishLogin",
		)
		return &auth.FactorResult{UserID: user.ID, Reason: auth.ReasonReplayDetected}, nil
	}

	return &auth.FactorResult{
		Success: true,
		AMR:     auth.FactorPasskey,
		UserID:  user.ID,
	}, nil
}

func (w *WebAuthn) passkeys(ctx context.Context, userID string) ([]*auth.Credential, error) {
	creds, err := w.repoMngr.Credential().ByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "cannot find passkeys for user")
	}

	var passkeys []*auth.Credential
	for _, c := range creds {
		if c.Type == auth.CredentialPasskey && c.IsActive() {
			passkeys = append(passkeys, c)
		}
	}

	return passkeys, nil
}

func (w *WebAuthn) storeSession(ctx context.Context, c ceremony, userID string, options interface{}, session *webauthnLib.SessionData) ([]byte, error) {
	optionBytes, err := json.Marshal(options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal webauthn options")
	}

	sessionBytes, err := json.Marshal(session)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal webauthn session")
	}

	err = w.db.Set(ctx, sessionKey(c, userID), sessionBytes, w.sessionTTL).Err()
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("session store unavailable"), err.Error())
	}

	return optionBytes, nil
}

// consumeSession retrieves and deletes a ceremony session so each
// challenge can be answered once.
func (w *WebAuthn) consumeSession(ctx context.Context, c ceremony, userID string) (*webauthnLib.SessionData, error) {
	b, err := w.db.GetDel(ctx, sessionKey(c, userID)).Bytes()
	if err == redis.Nil {
		return nil, auth.ErrExpired(fmt.Sprintf("webauthn %s session not found", c))
	}
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("session store unavailable"), err.Error())
	}

	session := webauthnLib.SessionData{}
	if err = json.Unmarshal(b, &session); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal webauthn session")
	}

	return &session, nil
}

func sessionKey(c ceremony, userID string) string {
	return fmt.Sprintf("webauthn:%s:%s", c, userID)
}

func encodeID(id []byte) string {
	return base64.RawURLEncoding.EncodeToString(id)
}

func decodeID(id string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(id)
}
