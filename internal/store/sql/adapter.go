package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/store"
)

// Adapter is the MySQL-backed store.Adapter. Single-record lookups
// translate sql.ErrNoRows into store.ErrNotFound, and UserCreate,
// MessageCreate and InviteCreate translate MySQL's duplicate-key error
// (1062) into store.ErrConflict, the same boundary contract
// internal/store/memory upholds so service-layer code is driver-agnostic.
type Adapter struct {
	dsn string
	db  *sqlx.DB
}

// New returns an Adapter bound to dsn. The connection itself is opened
// lazily by Open, matching the teacher's own store adapter lifecycle
// (construct, then Open at process startup).
func New(dsn string) (*Adapter, error) {
	if dsn == "" {
		return nil, errors.New("sql: DATABASE_URL is required for STORE_DRIVER=sql")
	}
	return &Adapter{dsn: dsn}, nil
}

func (a *Adapter) Open(ctx context.Context) error {
	db, err := sqlx.ConnectContext(ctx, "mysql", a.dsn)
	if err != nil {
		return fmt.Errorf("sql: connect: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("sql: apply schema: %w", err)
	}
	a.db = db
	return nil
}

func (a *Adapter) Close() error { return a.db.Close() }

func (a *Adapter) Ping(ctx context.Context) error { return a.db.PingContext(ctx) }

// isDuplicate reports whether err is MySQL error 1062 (duplicate key),
// the signal internal/store/memory's own map-based uniqueness checks
// are meant to mirror.
func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func wrapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// --- Users ---

func (a *Adapter) UserCreate(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if u.Plan == "" {
		u.Plan = domain.PlanFree
	}
	res, err := a.db.NamedExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, plan, public_key,
			preferred_language, allow_explicit_content, strict_e2ee, show_read_receipts,
			auto_delete_seconds, two_factor_enabled, totp_secret_enc, created_at, updated_at)
		VALUES (:username, :email, :password_hash, :role, :plan, :public_key,
			:preferred_language, :allow_explicit_content, :strict_e2ee, :show_read_receipts,
			:auto_delete_seconds, :two_factor_enabled, :totp_secret_enc, :created_at, :updated_at)
	`, u)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (a *Adapter) UserGet(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := a.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &u, nil
}

func (a *Adapter) UserGetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := a.db.GetContext(ctx, &u, `SELECT * FROM users WHERE username = ?`, username)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &u, nil
}

func (a *Adapter) UserGetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := a.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &u, nil
}

// userColumnByKey translates the update map keys internal/messagesvc,
// internal/authsvc and internal/roomsvc already use (matching
// internal/store/memory's applyUserUpdate switch) into column names.
var userColumnByKey = map[string]string{
	"passwordHash":         "password_hash",
	"plan":                 "plan",
	"preferredLanguage":    "preferred_language",
	"allowExplicitContent": "allow_explicit_content",
	"strictE2EE":           "strict_e2ee",
	"showReadReceipts":     "show_read_receipts",
	"autoDeleteSeconds":    "auto_delete_seconds",
	"twoFactorEnabled":     "two_factor_enabled",
	"totpSecretEnc":        "totp_secret_enc",
}

func (a *Adapter) UserUpdate(ctx context.Context, id int64, update map[string]interface{}) error {
	set, args := buildSet(update, userColumnByKey)
	if set == "" {
		return nil
	}
	set += ", updated_at = ?"
	args = append(args, time.Now().UTC(), id)
	res, err := a.db.ExecContext(ctx, `UPDATE users SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// buildSet turns a service-layer update map into a `col = ?, col2 = ?`
// clause plus its positional args, using colByKey to translate the
// camelCase keys services already pass (see internal/store/memory) into
// SQL column names. Unknown keys are ignored rather than erroring, since
// callers only ever pass keys this adapter and memory.Adapter both know.
func buildSet(update map[string]interface{}, colByKey map[string]string) (string, []interface{}) {
	set := ""
	var args []interface{}
	for k, v := range update {
		col, ok := colByKey[k]
		if !ok {
			continue
		}
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, v)
	}
	return set, args
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- Rooms ---

func (a *Adapter) RoomCreate(ctx context.Context, r *domain.ChatRoom) error {
	r.CreatedAt = time.Now().UTC()
	res, err := a.db.NamedExecContext(ctx, `
		INSERT INTO chat_rooms (name, is_group, owner_id, auto_translate_mode, created_at)
		VALUES (:name, :is_group, :owner_id, :auto_translate_mode, :created_at)
	`, r)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func (a *Adapter) RoomGet(ctx context.Context, id int64) (*domain.ChatRoom, error) {
	var r domain.ChatRoom
	err := a.db.GetContext(ctx, &r, `SELECT * FROM chat_rooms WHERE id = ?`, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &r, nil
}

func (a *Adapter) RoomUpdate(ctx context.Context, id int64, update map[string]interface{}) error {
	set, args := buildSet(update, map[string]string{
		"autoTranslateMode": "auto_translate_mode",
		"name":              "name",
	})
	if set == "" {
		return nil
	}
	args = append(args, id)
	res, err := a.db.ExecContext(ctx, `UPDATE chat_rooms SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (a *Adapter) RoomsForUser(ctx context.Context, userID int64) ([]domain.ChatRoom, error) {
	var out []domain.ChatRoom
	err := a.db.SelectContext(ctx, &out, `
		SELECT r.* FROM chat_rooms r
		JOIN participants p ON p.chat_room_id = r.id
		WHERE p.user_id = ? AND p.archived_at IS NULL
		ORDER BY r.id
	`, userID)
	return out, err
}

// --- Participants ---

func (a *Adapter) ParticipantAdd(ctx context.Context, p *domain.Participant) error {
	_, err := a.db.NamedExecContext(ctx, `
		INSERT INTO participants (chat_room_id, user_id, role, archived_at)
		VALUES (:chat_room_id, :user_id, :role, :archived_at)
		ON DUPLICATE KEY UPDATE role = VALUES(role), archived_at = VALUES(archived_at)
	`, p)
	return err
}

func (a *Adapter) ParticipantGet(ctx context.Context, roomID, userID int64) (*domain.Participant, error) {
	var p domain.Participant
	err := a.db.GetContext(ctx, &p, `SELECT * FROM participants WHERE chat_room_id = ? AND user_id = ?`, roomID, userID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &p, nil
}

func (a *Adapter) ParticipantsForRoom(ctx context.Context, roomID int64) ([]domain.Participant, error) {
	var out []domain.Participant
	err := a.db.SelectContext(ctx, &out, `SELECT * FROM participants WHERE chat_room_id = ? ORDER BY user_id`, roomID)
	return out, err
}

func (a *Adapter) ParticipantSetRole(ctx context.Context, roomID, userID int64, role domain.ParticipantRole) error {
	res, err := a.db.ExecContext(ctx, `UPDATE participants SET role = ? WHERE chat_room_id = ? AND user_id = ?`, role, roomID, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (a *Adapter) ParticipantArchive(ctx context.Context, roomID, userID int64, at time.Time) error {
	res, err := a.db.ExecContext(ctx, `UPDATE participants SET archived_at = ? WHERE chat_room_id = ? AND user_id = ?`, at, roomID, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (a *Adapter) ParticipantRemove(ctx context.Context, roomID, userID int64) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM participants WHERE chat_room_id = ? AND user_id = ?`, roomID, userID)
	return err
}

// --- ThreadClears ---

func (a *Adapter) ThreadClearSet(ctx context.Context, userID, roomID int64, at time.Time) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO thread_clears (user_id, chat_room_id, cleared_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE cleared_at = VALUES(cleared_at)
	`, userID, roomID, at)
	return err
}

func (a *Adapter) ThreadClearGet(ctx context.Context, userID, roomID int64) (*domain.ThreadClear, error) {
	var tc domain.ThreadClear
	err := a.db.GetContext(ctx, &tc, `SELECT * FROM thread_clears WHERE user_id = ? AND chat_room_id = ?`, userID, roomID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &tc, nil
}

// --- Messages ---
//
// Messages are hand-scanned rather than via sqlx.StructScan: Translations
// is stored as a JSON TEXT column and needs an explicit
// marshal/unmarshal step no struct tag can express.

const messageColumns = `id, chat_room_id, sender_id, client_message_id, raw_content,
	content_ciphertext, translations, translated_from, is_explicit, is_auto_reply,
	created_at, expires_at, edited_at, deleted_for_all, deleted_at, deleted_by_id`

func scanMessage(scanner interface{ Scan(...interface{}) error }) (*domain.Message, error) {
	var m domain.Message
	var translationsJSON sql.NullString
	err := scanner.Scan(
		&m.ID, &m.ChatRoomID, &m.SenderID, &m.ClientMessageID, &m.RawContent,
		&m.ContentCiphertext, &translationsJSON, &m.TranslatedFrom, &m.IsExplicit, &m.IsAutoReply,
		&m.CreatedAt, &m.ExpiresAt, &m.EditedAt, &m.DeletedForAll, &m.DeletedAt, &m.DeletedByID,
	)
	if err != nil {
		return nil, err
	}
	if translationsJSON.Valid && translationsJSON.String != "" {
		if err := json.Unmarshal([]byte(translationsJSON.String), &m.Translations); err != nil {
			return nil, fmt.Errorf("sql: decoding translations: %w", err)
		}
	}
	return &m, nil
}

func (a *Adapter) MessageCreate(ctx context.Context, m *domain.Message) error {
	m.CreatedAt = time.Now().UTC()
	translationsJSON, err := marshalTranslations(m.Translations)
	if err != nil {
		return err
	}
	res, err := a.db.ExecContext(ctx, `
		INSERT INTO messages (chat_room_id, sender_id, client_message_id, raw_content,
			content_ciphertext, translations, translated_from, is_explicit, is_auto_reply,
			created_at, expires_at, edited_at, deleted_for_all, deleted_at, deleted_by_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ChatRoomID, m.SenderID, m.ClientMessageID, m.RawContent,
		m.ContentCiphertext, translationsJSON, m.TranslatedFrom, m.IsExplicit, m.IsAutoReply,
		m.CreatedAt, m.ExpiresAt, m.EditedAt, m.DeletedForAll, m.DeletedAt, m.DeletedByID)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func marshalTranslations(t map[string]string) (*string, error) {
	if len(t) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func (a *Adapter) MessageGet(ctx context.Context, id int64) (*domain.Message, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return m, nil
}

func (a *Adapter) MessageGetByClientID(ctx context.Context, roomID, senderID int64, clientMessageID string) (*domain.Message, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE chat_room_id = ? AND sender_id = ? AND client_message_id = ?`, roomID, senderID, clientMessageID)
	m, err := scanMessage(row)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return m, nil
}

func (a *Adapter) MessagesForRoom(ctx context.Context, roomID int64, page store.MessagePage) ([]domain.Message, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if page.Before != nil {
		rows, err = a.db.QueryContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE chat_room_id = ? AND id < ? ORDER BY id DESC LIMIT ?`, roomID, *page.Before, limit)
	} else {
		rows, err = a.db.QueryContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE chat_room_id = ? ORDER BY id DESC LIMIT ?`, roomID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

var messageColumnByKey = map[string]string{
	"editedAt":          "edited_at",
	"deletedForAll":     "deleted_for_all",
	"deletedAt":         "deleted_at",
	"deletedById":       "deleted_by_id",
	"rawContent":        "raw_content",
	"contentCiphertext": "content_ciphertext",
}

func (a *Adapter) MessageUpdate(ctx context.Context, id int64, update map[string]interface{}) error {
	set, args := buildSet(update, messageColumnByKey)
	if t, ok := update["translations"]; ok {
		if m, ok := t.(map[string]string); ok {
			j, err := marshalTranslations(m)
			if err != nil {
				return err
			}
			if set != "" {
				set += ", "
			}
			set += "translations = ?"
			args = append(args, j)
		}
	}
	if set == "" {
		return nil
	}
	args = append(args, id)
	res, err := a.db.ExecContext(ctx, `UPDATE messages SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (a *Adapter) MessagesExpiring(ctx context.Context, before time.Time, limit int) ([]domain.Message, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE deleted_for_all = FALSE AND expires_at IS NOT NULL AND expires_at <= ?
		ORDER BY id LIMIT ?
	`, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (a *Adapter) MessagesOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Message, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE deleted_for_all = FALSE AND created_at <= ?
		ORDER BY id LIMIT ?
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// --- Attachments ---

func (a *Adapter) AttachmentCreate(ctx context.Context, att *domain.Attachment) error {
	att.CreatedAt = time.Now().UTC()
	res, err := a.db.NamedExecContext(ctx, `
		INSERT INTO attachments (message_id, kind, url, mime_type, width, height, duration_sec, caption, thumb_url, created_at)
		VALUES (:message_id, :kind, :url, :mime_type, :width, :height, :duration_sec, :caption, :thumb_url, :created_at)
	`, att)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	att.ID = id
	return nil
}

func (a *Adapter) AttachmentsForMessage(ctx context.Context, messageID int64) ([]domain.Attachment, error) {
	var out []domain.Attachment
	err := a.db.SelectContext(ctx, &out, `SELECT * FROM attachments WHERE message_id = ? ORDER BY id`, messageID)
	return out, err
}

// --- MessageKeys ---

func (a *Adapter) MessageKeysPut(ctx context.Context, keys []domain.MessageKey) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO message_keys (message_id, user_id, encrypted_key) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE encrypted_key = VALUES(encrypted_key)
		`, k.MessageID, k.UserID, k.EncryptedKey); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (a *Adapter) MessageKeyGet(ctx context.Context, messageID, userID int64) (*domain.MessageKey, error) {
	var k domain.MessageKey
	err := a.db.GetContext(ctx, &k, `SELECT * FROM message_keys WHERE message_id = ? AND user_id = ?`, messageID, userID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &k, nil
}

// --- Reactions ---

func (a *Adapter) ReactionToggle(ctx context.Context, messageID, userID int64, emoji string) (bool, error) {
	res, err := a.db.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id = ? AND user_id = ? AND emoji = ?`, messageID, userID, emoji)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	_, err = a.db.ExecContext(ctx, `INSERT INTO message_reactions (message_id, user_id, emoji) VALUES (?, ?, ?)`, messageID, userID, emoji)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *Adapter) ReactionsForMessage(ctx context.Context, messageID int64) (domain.ReactionSummary, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT emoji, COUNT(*) FROM message_reactions WHERE message_id = ? GROUP BY emoji`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	summary := domain.ReactionSummary{}
	for rows.Next() {
		var emoji string
		var count int
		if err := rows.Scan(&emoji, &count); err != nil {
			return nil, err
		}
		summary[emoji] = count
	}
	return summary, rows.Err()
}

// --- Reads ---

func (a *Adapter) ReadUpsert(ctx context.Context, messageID, userID int64, at time.Time) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO message_reads (message_id, user_id, read_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE read_at = VALUES(read_at)
	`, messageID, userID, at)
	return err
}

func (a *Adapter) ReadsForMessage(ctx context.Context, messageID int64) ([]domain.MessageRead, error) {
	var out []domain.MessageRead
	err := a.db.SelectContext(ctx, &out, `SELECT * FROM message_reads WHERE message_id = ?`, messageID)
	return out, err
}

// --- Deletions ---

func (a *Adapter) DeletionAdd(ctx context.Context, messageID, userID int64) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO message_deletions (message_id, user_id) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE message_id = message_id
	`, messageID, userID)
	return err
}

func (a *Adapter) DeletionExists(ctx context.Context, messageID, userID int64) (bool, error) {
	var count int
	err := a.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM message_deletions WHERE message_id = ? AND user_id = ?`, messageID, userID)
	return count > 0, err
}

// --- ScheduledMessages ---

func (a *Adapter) ScheduledCreate(ctx context.Context, sm *domain.ScheduledMessage) error {
	sm.CreatedAt = time.Now().UTC()
	res, err := a.db.NamedExecContext(ctx, `
		INSERT INTO scheduled_messages (chat_room_id, sender_id, content, scheduled_at, created_at)
		VALUES (:chat_room_id, :sender_id, :content, :scheduled_at, :created_at)
	`, sm)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sm.ID = id
	return nil
}

func (a *Adapter) ScheduledDue(ctx context.Context, before time.Time, limit int) ([]domain.ScheduledMessage, error) {
	var out []domain.ScheduledMessage
	err := a.db.SelectContext(ctx, &out, `SELECT * FROM scheduled_messages WHERE scheduled_at <= ? ORDER BY id LIMIT ?`, before, limit)
	return out, err
}

func (a *Adapter) ScheduledDelete(ctx context.Context, id int64) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM scheduled_messages WHERE id = ?`, id)
	return err
}

// --- Invites ---

func (a *Adapter) InviteCreate(ctx context.Context, inv *domain.InviteCode) error {
	inv.CreatedAt = time.Now().UTC()
	_, err := a.db.NamedExecContext(ctx, `
		INSERT INTO invite_codes (code, chat_room_id, created_at, expires_at)
		VALUES (:code, :chat_room_id, :created_at, :expires_at)
	`, inv)
	if isDuplicate(err) {
		return store.ErrConflict
	}
	return err
}

func (a *Adapter) InviteGet(ctx context.Context, code string) (*domain.InviteCode, error) {
	var inv domain.InviteCode
	err := a.db.GetContext(ctx, &inv, `SELECT * FROM invite_codes WHERE code = ?`, code)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &inv, nil
}

func (a *Adapter) InviteDelete(ctx context.Context, code string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM invite_codes WHERE code = ?`, code)
	return err
}

// --- Uploads ---

func (a *Adapter) UploadCreate(ctx context.Context, u *domain.Upload) error {
	u.CreatedAt = time.Now().UTC()
	_, err := a.db.NamedExecContext(ctx, `
		INSERT INTO uploads (id, owner_id, storage_key, sha256, original_name, mime_type, size, driver, created_at)
		VALUES (:id, :owner_id, :storage_key, :sha256, :original_name, :mime_type, :size, :driver, :created_at)
	`, u)
	return err
}

func (a *Adapter) UploadGet(ctx context.Context, id string) (*domain.Upload, error) {
	var u domain.Upload
	err := a.db.GetContext(ctx, &u, `SELECT * FROM uploads WHERE id = ?`, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &u, nil
}

// --- Devices ---

func (a *Adapter) DeviceUpsert(ctx context.Context, d *store.Device) error {
	_, err := a.db.NamedExecContext(ctx, `
		INSERT INTO devices (user_id, device_id, platform, lang, last_seen)
		VALUES (:user_id, :device_id, :platform, :lang, :last_seen)
		ON DUPLICATE KEY UPDATE platform = VALUES(platform), lang = VALUES(lang), last_seen = VALUES(last_seen)
	`, d)
	return err
}

func (a *Adapter) DevicesForUsers(ctx context.Context, userIDs []int64) ([]store.Device, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM devices WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}
	query = a.db.Rebind(query)
	var out []store.Device
	err = a.db.SelectContext(ctx, &out, query, args...)
	return out, err
}

func (a *Adapter) DeviceDelete(ctx context.Context, userID int64, deviceID string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM devices WHERE user_id = ? AND device_id = ?`, userID, deviceID)
	return err
}
