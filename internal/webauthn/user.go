package webauthn

import (
	webauthnLib "github.com/go-webauthn/webauthn/webauthn"

	auth "github.com/strategiz/authcore"
)

// User is a wrapper for the domain entity auth.User to allow
// compatibility with go-webauthn's User interface.
type User struct {
	auth.User
	Credentials []*auth.Credential
}

// WebAuthnID returns the User's ID. It is stored by authenticators
// as the user handle.
func (u *User) WebAuthnID() []byte {
	return []byte(u.ID)
}

// WebAuthnName returns the User's name.
func (u *User) WebAuthnName() string {
	name := u.Email.String
	if name == "" {
		name = u.Phone.String
	}
	if name == "" {
		name = u.ID
	}
	return name
}

// WebAuthnDisplayName returns the User's display name.
func (u *User) WebAuthnDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.WebAuthnName()
}

// WebAuthnCredentials returns the User's passkeys.
func (u *User) WebAuthnCredentials() []webauthnLib.Credential {
	wcs := make([]webauthnLib.Credential, 0, len(u.Credentials))

	for _, c := range u.Credentials {
		if c.Type != auth.CredentialPasskey {
			continue
		}

		id, err := decodeID(c.Identifier)
		if err != nil {
			continue
		}

		wcs = append(wcs, webauthnLib.Credential{
			ID:        id,
			PublicKey: c.Secret,
			Flags: webauthnLib.CredentialFlags{
				UserPresent:    true,
				BackupEligible: c.BackupEligible,
				BackupState:    c.BackupState,
			},
			Authenticator: webauthnLib.Authenticator{
				AAGUID:    c.AAGUID,
				SignCount: c.Counter,
			},
		})
	}

	return wcs
}
