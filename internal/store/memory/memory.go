// Package memory implements store.Adapter entirely in process memory.
// It backs unit tests and local development (STORE_DRIVER=memory); it is
// never the production adapter, but it satisfies the exact same interface
// the SQL adapter does so service-layer code cannot tell them apart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/store"
)

// Adapter is a mutex-guarded, map-backed store.Adapter.
type Adapter struct {
	mu sync.RWMutex

	userSeq   int64
	roomSeq   int64
	msgSeq    map[int64]*int64 // per-room monotonic message counter
	msgSeqMu  sync.Mutex
	attSeq    int64
	schedSeq  int64

	users map[int64]*domain.User
	rooms map[int64]*domain.ChatRoom
	// participants keyed by roomID -> userID
	participants map[int64]map[int64]*domain.Participant
	threadClears map[threadClearKey]*domain.ThreadClear
	messages     map[int64]*domain.Message
	msgByClient  map[clientKey]int64
	attachments  map[int64][]domain.Attachment
	msgKeys      map[msgKeyKey]*domain.MessageKey
	reactions    map[int64]map[reactionKey]bool
	reads        map[int64]map[int64]*domain.MessageRead
	deletions    map[int64]map[int64]bool
	scheduled    map[int64]*domain.ScheduledMessage
	invites      map[string]*domain.InviteCode
	uploads      map[string]*domain.Upload
	devices      map[int64]map[string]*store.Device
}

type threadClearKey struct {
	userID, roomID int64
}

type clientKey struct {
	roomID, senderID int64
	clientMessageID  string
}

type msgKeyKey struct {
	messageID, userID int64
}

type reactionKey struct {
	userID int64
	emoji  string
}

// New returns an empty, ready-to-use Adapter.
func New() *Adapter {
	return &Adapter{
		msgSeq:       make(map[int64]*int64),
		users:        make(map[int64]*domain.User),
		rooms:        make(map[int64]*domain.ChatRoom),
		participants: make(map[int64]map[int64]*domain.Participant),
		threadClears: make(map[threadClearKey]*domain.ThreadClear),
		messages:     make(map[int64]*domain.Message),
		msgByClient:  make(map[clientKey]int64),
		attachments:  make(map[int64][]domain.Attachment),
		msgKeys:      make(map[msgKeyKey]*domain.MessageKey),
		reactions:    make(map[int64]map[reactionKey]bool),
		reads:        make(map[int64]map[int64]*domain.MessageRead),
		deletions:    make(map[int64]map[int64]bool),
		scheduled:    make(map[int64]*domain.ScheduledMessage),
		invites:      make(map[string]*domain.InviteCode),
		uploads:      make(map[string]*domain.Upload),
		devices:      make(map[int64]map[string]*store.Device),
	}
}

func (a *Adapter) Open(ctx context.Context) error  { return nil }
func (a *Adapter) Close() error                    { return nil }
func (a *Adapter) Ping(ctx context.Context) error  { return nil }

// --- Users ---

func (a *Adapter) UserCreate(ctx context.Context, u *domain.User) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return store.ErrConflict
		}
	}
	a.userSeq++
	u.ID = a.userSeq
	cp := *u
	a.users[u.ID] = &cp
	return nil
}

func (a *Adapter) UserGet(ctx context.Context, id int64) (*domain.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	u, ok := a.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (a *Adapter) UserGetByUsername(ctx context.Context, username string) (*domain.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, u := range a.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (a *Adapter) UserGetByEmail(ctx context.Context, email string) (*domain.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, u := range a.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (a *Adapter) UserUpdate(ctx context.Context, id int64, update map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok {
		return store.ErrNotFound
	}
	applyUserUpdate(u, update)
	u.UpdatedAt = clockNow()
	return nil
}

// --- Rooms ---

func (a *Adapter) RoomCreate(ctx context.Context, r *domain.ChatRoom) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roomSeq++
	r.ID = a.roomSeq
	cp := *r
	a.rooms[r.ID] = &cp
	a.participants[r.ID] = make(map[int64]*domain.Participant)
	return nil
}

func (a *Adapter) RoomGet(ctx context.Context, id int64) (*domain.ChatRoom, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (a *Adapter) RoomUpdate(ctx context.Context, id int64, update map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.rooms[id]
	if !ok {
		return store.ErrNotFound
	}
	if mode, ok := update["autoTranslateMode"].(domain.AutoTranslateMode); ok {
		r.AutoTranslateMode = mode
	}
	if name, ok := update["name"].(*string); ok {
		r.Name = name
	}
	return nil
}

func (a *Adapter) RoomsForUser(ctx context.Context, userID int64) ([]domain.ChatRoom, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []domain.ChatRoom
	for roomID, members := range a.participants {
		if p, ok := members[userID]; ok && p.ArchivedAt == nil {
			if r, ok := a.rooms[roomID]; ok {
				out = append(out, *r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Participants ---

func (a *Adapter) ParticipantAdd(ctx context.Context, p *domain.Participant) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	members, ok := a.participants[p.ChatRoomID]
	if !ok {
		members = make(map[int64]*domain.Participant)
		a.participants[p.ChatRoomID] = members
	}
	cp := *p
	members[p.UserID] = &cp
	return nil
}

func (a *Adapter) ParticipantGet(ctx context.Context, roomID, userID int64) (*domain.Participant, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	members, ok := a.participants[roomID]
	if !ok {
		return nil, store.ErrNotFound
	}
	p, ok := members[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (a *Adapter) ParticipantsForRoom(ctx context.Context, roomID int64) ([]domain.Participant, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	members := a.participants[roomID]
	out := make([]domain.Participant, 0, len(members))
	for _, p := range members {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (a *Adapter) ParticipantSetRole(ctx context.Context, roomID, userID int64, role domain.ParticipantRole) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	members, ok := a.participants[roomID]
	if !ok {
		return store.ErrNotFound
	}
	p, ok := members[userID]
	if !ok {
		return store.ErrNotFound
	}
	p.Role = role
	return nil
}

func (a *Adapter) ParticipantArchive(ctx context.Context, roomID, userID int64, at time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	members, ok := a.participants[roomID]
	if !ok {
		return store.ErrNotFound
	}
	p, ok := members[userID]
	if !ok {
		return store.ErrNotFound
	}
	p.ArchivedAt = &at
	return nil
}

func (a *Adapter) ParticipantRemove(ctx context.Context, roomID, userID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	members, ok := a.participants[roomID]
	if !ok {
		return store.ErrNotFound
	}
	delete(members, userID)
	return nil
}

// --- ThreadClears ---

func (a *Adapter) ThreadClearSet(ctx context.Context, userID, roomID int64, at time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threadClears[threadClearKey{userID, roomID}] = &domain.ThreadClear{UserID: userID, ChatRoomID: roomID, ClearedAt: at}
	return nil
}

func (a *Adapter) ThreadClearGet(ctx context.Context, userID, roomID int64) (*domain.ThreadClear, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	tc, ok := a.threadClears[threadClearKey{userID, roomID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *tc
	return &cp, nil
}

// --- Messages ---

func (a *Adapter) nextMessageID(roomID int64) int64 {
	a.msgSeqMu.Lock()
	defer a.msgSeqMu.Unlock()
	ctr, ok := a.msgSeq[roomID]
	if !ok {
		var zero int64
		ctr = &zero
		a.msgSeq[roomID] = ctr
	}
	*ctr++
	// message IDs are globally unique in this adapter by combining room and
	// a room-local sequence, matching the spec's "monotonic per room" rule
	// while keeping a single map key space.
	return roomID<<32 | *ctr
}

func (a *Adapter) MessageCreate(ctx context.Context, m *domain.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if m.ClientMessageID != nil {
		key := clientKey{m.ChatRoomID, m.SenderID, *m.ClientMessageID}
		if _, exists := a.msgByClient[key]; exists {
			return store.ErrConflict
		}
	}
	m.ID = a.nextMessageID(m.ChatRoomID)
	cp := *m
	a.messages[m.ID] = &cp
	if m.ClientMessageID != nil {
		a.msgByClient[clientKey{m.ChatRoomID, m.SenderID, *m.ClientMessageID}] = m.ID
	}
	return nil
}

func (a *Adapter) MessageGet(ctx context.Context, id int64) (*domain.Message, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (a *Adapter) MessageGetByClientID(ctx context.Context, roomID, senderID int64, clientMessageID string) (*domain.Message, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	id, ok := a.msgByClient[clientKey{roomID, senderID, clientMessageID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a.messages[id]
	return &cp, nil
}

func (a *Adapter) MessagesForRoom(ctx context.Context, roomID int64, page store.MessagePage) ([]domain.Message, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var all []domain.Message
	for _, m := range a.messages {
		if m.ChatRoomID != roomID {
			continue
		}
		if page.Before != nil && m.ID >= *page.Before {
			continue
		}
		all = append(all, *m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	limit := page.Limit
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	return all[:limit], nil
}

func (a *Adapter) MessageUpdate(ctx context.Context, id int64, update map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.messages[id]
	if !ok {
		return store.ErrNotFound
	}
	applyMessageUpdate(m, update)
	return nil
}

func (a *Adapter) MessagesExpiring(ctx context.Context, before time.Time, limit int) ([]domain.Message, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []domain.Message
	for _, m := range a.messages {
		if m.DeletedForAll || m.ExpiresAt == nil {
			continue
		}
		if m.ExpiresAt.After(before) {
			continue
		}
		out = append(out, *m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *Adapter) MessagesOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Message, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []domain.Message
	for _, m := range a.messages {
		if m.DeletedForAll || m.CreatedAt.After(cutoff) {
			continue
		}
		out = append(out, *m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Attachments ---

func (a *Adapter) AttachmentCreate(ctx context.Context, att *domain.Attachment) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attSeq++
	att.ID = a.attSeq
	a.attachments[att.MessageID] = append(a.attachments[att.MessageID], *att)
	return nil
}

func (a *Adapter) AttachmentsForMessage(ctx context.Context, messageID int64) ([]domain.Attachment, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]domain.Attachment, len(a.attachments[messageID]))
	copy(out, a.attachments[messageID])
	return out, nil
}

// --- MessageKeys ---

func (a *Adapter) MessageKeysPut(ctx context.Context, keys []domain.MessageKey) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, k := range keys {
		cp := k
		a.msgKeys[msgKeyKey{k.MessageID, k.UserID}] = &cp
	}
	return nil
}

func (a *Adapter) MessageKeyGet(ctx context.Context, messageID, userID int64) (*domain.MessageKey, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	k, ok := a.msgKeys[msgKeyKey{messageID, userID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *k
	return &cp, nil
}

// --- Reactions ---

func (a *Adapter) ReactionToggle(ctx context.Context, messageID, userID int64, emoji string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	set, ok := a.reactions[messageID]
	if !ok {
		set = make(map[reactionKey]bool)
		a.reactions[messageID] = set
	}
	key := reactionKey{userID, emoji}
	if set[key] {
		delete(set, key)
		return false, nil
	}
	set[key] = true
	return true, nil
}

func (a *Adapter) ReactionsForMessage(ctx context.Context, messageID int64) (domain.ReactionSummary, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	summary := domain.ReactionSummary{}
	for key := range a.reactions[messageID] {
		summary[key.emoji]++
	}
	return summary, nil
}

// --- Reads ---

func (a *Adapter) ReadUpsert(ctx context.Context, messageID, userID int64, at time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	byUser, ok := a.reads[messageID]
	if !ok {
		byUser = make(map[int64]*domain.MessageRead)
		a.reads[messageID] = byUser
	}
	byUser[userID] = &domain.MessageRead{MessageID: messageID, UserID: userID, ReadAt: at}
	return nil
}

func (a *Adapter) ReadsForMessage(ctx context.Context, messageID int64) ([]domain.MessageRead, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]domain.MessageRead, 0, len(a.reads[messageID]))
	for _, r := range a.reads[messageID] {
		out = append(out, *r)
	}
	return out, nil
}

// --- Deletions ---

func (a *Adapter) DeletionAdd(ctx context.Context, messageID, userID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	set, ok := a.deletions[messageID]
	if !ok {
		set = make(map[int64]bool)
		a.deletions[messageID] = set
	}
	set[userID] = true
	return nil
}

func (a *Adapter) DeletionExists(ctx context.Context, messageID, userID int64) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deletions[messageID][userID], nil
}

// --- ScheduledMessages ---

func (a *Adapter) ScheduledCreate(ctx context.Context, sm *domain.ScheduledMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.schedSeq++
	sm.ID = a.schedSeq
	cp := *sm
	a.scheduled[sm.ID] = &cp
	return nil
}

func (a *Adapter) ScheduledDue(ctx context.Context, before time.Time, limit int) ([]domain.ScheduledMessage, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []domain.ScheduledMessage
	for _, sm := range a.scheduled {
		if sm.ScheduledAt.After(before) {
			continue
		}
		out = append(out, *sm)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *Adapter) ScheduledDelete(ctx context.Context, id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.scheduled, id)
	return nil
}

// --- Invites ---

func (a *Adapter) InviteCreate(ctx context.Context, inv *domain.InviteCode) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.invites[inv.Code]; exists {
		return store.ErrConflict
	}
	cp := *inv
	a.invites[inv.Code] = &cp
	return nil
}

func (a *Adapter) InviteGet(ctx context.Context, code string) (*domain.InviteCode, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	inv, ok := a.invites[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (a *Adapter) InviteDelete(ctx context.Context, code string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.invites, code)
	return nil
}

// --- Uploads ---

func (a *Adapter) UploadCreate(ctx context.Context, u *domain.Upload) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := *u
	a.uploads[u.ID] = &cp
	return nil
}

func (a *Adapter) UploadGet(ctx context.Context, id string) (*domain.Upload, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	u, ok := a.uploads[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// --- Devices ---

func (a *Adapter) DeviceUpsert(ctx context.Context, d *store.Device) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	byDevice, ok := a.devices[d.UserID]
	if !ok {
		byDevice = make(map[string]*store.Device)
		a.devices[d.UserID] = byDevice
	}
	cp := *d
	byDevice[d.DeviceID] = &cp
	return nil
}

func (a *Adapter) DevicesForUsers(ctx context.Context, userIDs []int64) ([]store.Device, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []store.Device
	for _, uid := range userIDs {
		for _, d := range a.devices[uid] {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (a *Adapter) DeviceDelete(ctx context.Context, userID int64, deviceID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.devices[userID], deviceID)
	return nil
}

func applyUserUpdate(u *domain.User, update map[string]interface{}) {
	for k, v := range update {
		switch k {
		case "passwordHash":
			u.PasswordHash = v.(string)
		case "plan":
			u.Plan = v.(domain.Plan)
		case "preferredLanguage":
			u.PreferredLanguage = v.(string)
		case "allowExplicitContent":
			u.AllowExplicitContent = v.(bool)
		case "strictE2EE":
			u.StrictE2EE = v.(bool)
		case "showReadReceipts":
			u.ShowReadReceipts = v.(bool)
		case "autoDeleteSeconds":
			u.AutoDeleteSeconds = v.(int)
		case "twoFactorEnabled":
			u.TwoFactorEnabled = v.(bool)
		case "totpSecretEnc":
			u.TOTPSecretEnc = v.([]byte)
		}
	}
}

func applyMessageUpdate(m *domain.Message, update map[string]interface{}) {
	for k, v := range update {
		switch k {
		case "translations":
			m.Translations = v.(map[string]string)
		case "editedAt":
			t := v.(time.Time)
			m.EditedAt = &t
		case "deletedForAll":
			m.DeletedForAll = v.(bool)
		case "deletedAt":
			t := v.(time.Time)
			m.DeletedAt = &t
		case "deletedById":
			id := v.(int64)
			m.DeletedByID = &id
		case "rawContent":
			m.RawContent = v.(string)
		case "contentCiphertext":
			s := v.(string)
			m.ContentCiphertext = &s
		}
	}
}

// clockNow exists so update paths have one seam to mock time through in
// tests without reaching for a package-level clock dependency.
var clockNow = time.Now
