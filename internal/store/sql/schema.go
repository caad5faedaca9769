// Package sql implements store.Adapter against MySQL via jmoiron/sqlx and
// go-sql-driver/mysql, grounded on the teacher's own sqlx-based store
// adapter conventions (named queries, struct scanning via `db` tags,
// ErrNoRows translated to store.ErrNotFound at the boundary).
package sql

// schema is applied once at Open, matching the teacher's own
// create-tables-if-missing bootstrap rather than a separate migration
// tool — this core has no schema history to migrate yet.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(32) NOT NULL UNIQUE,
	email VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(16) NOT NULL DEFAULT 'USER',
	plan VARCHAR(16) NOT NULL DEFAULT 'FREE',
	public_key VARBINARY(1024),
	preferred_language VARCHAR(16) NOT NULL DEFAULT 'en',
	allow_explicit_content BOOLEAN NOT NULL DEFAULT FALSE,
	strict_e2ee BOOLEAN NOT NULL DEFAULT FALSE,
	show_read_receipts BOOLEAN NOT NULL DEFAULT TRUE,
	auto_delete_seconds INT NOT NULL DEFAULT 0,
	two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	totp_secret_enc VARBINARY(512),
	created_at DATETIME(3) NOT NULL,
	updated_at DATETIME(3) NOT NULL
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS chat_rooms (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255),
	is_group BOOLEAN NOT NULL DEFAULT FALSE,
	owner_id BIGINT UNSIGNED,
	auto_translate_mode VARCHAR(16) NOT NULL DEFAULT 'off',
	created_at DATETIME(3) NOT NULL
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS participants (
	chat_room_id BIGINT UNSIGNED NOT NULL,
	user_id BIGINT UNSIGNED NOT NULL,
	role VARCHAR(16) NOT NULL DEFAULT 'MEMBER',
	archived_at DATETIME(3),
	PRIMARY KEY (chat_room_id, user_id)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS thread_clears (
	user_id BIGINT UNSIGNED NOT NULL,
	chat_room_id BIGINT UNSIGNED NOT NULL,
	cleared_at DATETIME(3) NOT NULL,
	PRIMARY KEY (user_id, chat_room_id)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS messages (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	chat_room_id BIGINT UNSIGNED NOT NULL,
	sender_id BIGINT UNSIGNED NOT NULL,
	client_message_id VARCHAR(128),
	raw_content MEDIUMTEXT NOT NULL DEFAULT '',
	content_ciphertext MEDIUMTEXT,
	translations TEXT,
	translated_from VARCHAR(16),
	is_explicit BOOLEAN NOT NULL DEFAULT FALSE,
	is_auto_reply BOOLEAN NOT NULL DEFAULT FALSE,
	created_at DATETIME(3) NOT NULL,
	expires_at DATETIME(3),
	edited_at DATETIME(3),
	deleted_for_all BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at DATETIME(3),
	deleted_by_id BIGINT UNSIGNED,
	INDEX idx_messages_room (chat_room_id, id),
	INDEX idx_messages_expires (expires_at),
	UNIQUE KEY uq_messages_client (chat_room_id, sender_id, client_message_id)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS attachments (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	message_id BIGINT UNSIGNED NOT NULL,
	kind VARCHAR(16) NOT NULL,
	url TEXT NOT NULL,
	mime_type VARCHAR(128) NOT NULL,
	width INT,
	height INT,
	duration_sec DOUBLE,
	caption TEXT,
	thumb_url TEXT,
	created_at DATETIME(3) NOT NULL,
	INDEX idx_attachments_message (message_id)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS message_keys (
	message_id BIGINT UNSIGNED NOT NULL,
	user_id BIGINT UNSIGNED NOT NULL,
	encrypted_key MEDIUMTEXT NOT NULL,
	PRIMARY KEY (message_id, user_id)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS message_reactions (
	message_id BIGINT UNSIGNED NOT NULL,
	user_id BIGINT UNSIGNED NOT NULL,
	emoji VARCHAR(32) NOT NULL,
	PRIMARY KEY (message_id, user_id, emoji)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS message_reads (
	message_id BIGINT UNSIGNED NOT NULL,
	user_id BIGINT UNSIGNED NOT NULL,
	read_at DATETIME(3) NOT NULL,
	PRIMARY KEY (message_id, user_id)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS message_deletions (
	message_id BIGINT UNSIGNED NOT NULL,
	user_id BIGINT UNSIGNED NOT NULL,
	PRIMARY KEY (message_id, user_id)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS scheduled_messages (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	chat_room_id BIGINT UNSIGNED NOT NULL,
	sender_id BIGINT UNSIGNED NOT NULL,
	content MEDIUMTEXT NOT NULL,
	scheduled_at DATETIME(3) NOT NULL,
	created_at DATETIME(3) NOT NULL,
	INDEX idx_scheduled_due (scheduled_at)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS invite_codes (
	code VARCHAR(64) PRIMARY KEY,
	chat_room_id BIGINT UNSIGNED NOT NULL,
	created_at DATETIME(3) NOT NULL,
	expires_at DATETIME(3)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS uploads (
	id VARCHAR(64) PRIMARY KEY,
	owner_id BIGINT UNSIGNED NOT NULL,
	storage_key VARCHAR(512) NOT NULL,
	sha256 VARCHAR(64),
	original_name VARCHAR(255) NOT NULL,
	mime_type VARCHAR(128) NOT NULL,
	size BIGINT NOT NULL,
	driver VARCHAR(16) NOT NULL,
	created_at DATETIME(3) NOT NULL
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS devices (
	user_id BIGINT UNSIGNED NOT NULL,
	device_id VARCHAR(128) NOT NULL,
	platform VARCHAR(32) NOT NULL,
	lang VARCHAR(16) NOT NULL,
	last_seen DATETIME(3) NOT NULL,
	PRIMARY KEY (user_id, device_id)
) ENGINE=InnoDB;
`
