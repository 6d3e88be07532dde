package authcore

// Schema contains sql commands to setup the database to work for the authcore app.
const Schema = `
CREATE TABLE IF NOT EXISTS auth_user (
	id VARCHAR(26) PRIMARY KEY,
	phone VARCHAR(20) UNIQUE NULL,
	email VARCHAR(255) UNIQUE NULL,
	password VARCHAR(60) NOT NULL DEFAULT '',
	display_name VARCHAR(255) NOT NULL DEFAULT '',
	mfa_enforced BOOLEAN DEFAULT false,
	minimum_acr VARCHAR(2) NOT NULL DEFAULT '2',
	is_verified BOOLEAN DEFAULT false,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
CREATE TABLE IF NOT EXISTS credential (
	id VARCHAR(26) PRIMARY KEY,
	user_id VARCHAR(26) REFERENCES auth_user(id) ON DELETE CASCADE NOT NULL,
	type VARCHAR(20) NOT NULL,
	identifier VARCHAR(512) NOT NULL,
	name VARCHAR(64) NOT NULL DEFAULT '',
	secret BYTEA NULL,
	counter BIGINT NOT NULL DEFAULT 0,
	aaguid BYTEA NULL,
	backup_eligible BOOLEAN DEFAULT false,
	backup_state BOOLEAN DEFAULT false,
	is_flagged BOOLEAN DEFAULT false,
	is_verified BOOLEAN DEFAULT false,
	is_enabled BOOLEAN DEFAULT false,
	last_used_at TIMESTAMP WITH TIME ZONE NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	UNIQUE (type, identifier)
);
CREATE INDEX IF NOT EXISTS credential_user_id_idx ON credential (user_id);
CREATE TABLE IF NOT EXISTS backup_code (
	id VARCHAR(26) PRIMARY KEY,
	user_id VARCHAR(26) REFERENCES auth_user(id) ON DELETE CASCADE NOT NULL,
	code_hash VARCHAR(60) NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
CREATE INDEX IF NOT EXISTS backup_code_user_id_idx ON backup_code (user_id);
CREATE TABLE IF NOT EXISTS device_trust (
	id VARCHAR(26) PRIMARY KEY,
	user_id VARCHAR(26) REFERENCES auth_user(id) ON DELETE CASCADE NOT NULL,
	name VARCHAR(64) NOT NULL DEFAULT '',
	fingerprint VARCHAR(255) NOT NULL,
	public_key BYTEA NOT NULL,
	trust_level VARCHAR(20) NOT NULL,
	trust_score INT NOT NULL DEFAULT 0,
	is_trusted BOOLEAN DEFAULT false,
	trust_expires_at TIMESTAMP WITH TIME ZONE NULL,
	last_seen_at TIMESTAMP WITH TIME ZONE NULL,
	last_verified_at TIMESTAMP WITH TIME ZONE NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
CREATE INDEX IF NOT EXISTS device_trust_fingerprint_idx ON device_trust (fingerprint);
CREATE TABLE IF NOT EXISTS login_history (
	token_id VARCHAR(26) PRIMARY KEY,
	user_id VARCHAR(26) REFERENCES auth_user(id) ON DELETE CASCADE NOT NULL,
	device_id VARCHAR(26) NULL,
	amr TEXT[] NOT NULL,
	acr VARCHAR(2) NOT NULL,
	refresh_token_id VARCHAR(26) NOT NULL,
	is_revoked BOOLEAN DEFAULT false,
	revoked_reason VARCHAR(255) NULL,
	ip_address VARCHAR(45) NULL,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
CREATE INDEX IF NOT EXISTS login_history_user_id_idx ON login_history (user_id);
`
