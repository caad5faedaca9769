package messagesvc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/apperror"
	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/logging"
	"github.com/backboneproto/corechat/internal/metrics"
	"github.com/backboneproto/corechat/internal/policy"
	"github.com/backboneproto/corechat/internal/push"
	"github.com/backboneproto/corechat/internal/realtime"
	"github.com/backboneproto/corechat/internal/store"
	"github.com/backboneproto/corechat/internal/translate"
)

// PlanMax is the TTL ceiling per plan from spec §4.1 step 7.
var PlanMax = map[domain.Plan]time.Duration{
	domain.PlanFree:    24 * time.Hour,
	domain.PlanPremium: 7 * 24 * time.Hour,
}

const minExpireSeconds = 5

// Service implements the message pipeline. It depends on store.Adapter
// through the narrow interfaces it actually uses, a profanity detector, a
// translation client, the realtime Hub for emits, and the push registry
// for best-effort side channels.
type Service struct {
	store     store.Adapter
	profanity *policy.ProfanityDetector
	translate *translate.Client
	hub       *realtime.Hub
	push      *push.Registry
	metrics   *metrics.Metrics
	log       *zap.SugaredLogger
	editWindow time.Duration
}

func New(
	st store.Adapter,
	profanity *policy.ProfanityDetector,
	tr *translate.Client,
	hub *realtime.Hub,
	pushReg *push.Registry,
	m *metrics.Metrics,
	log *zap.SugaredLogger,
	editWindow time.Duration,
) *Service {
	return &Service{
		store:      st,
		profanity:  profanity,
		translate:  tr,
		hub:        hub,
		push:       pushReg,
		metrics:    m,
		log:        log,
		editWindow: editWindow,
	}
}

// Create implements spec §4.1's twelve-step pipeline.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Item, error) {
	// 1. Sender resolution.
	sender, err := s.store.UserGet(ctx, in.SenderID)
	if err != nil {
		return nil, apperror.Unauthorized("sender not found")
	}

	// 2. Membership.
	if _, err := s.store.ParticipantGet(ctx, in.ChatRoomID, in.SenderID); err != nil {
		return nil, apperror.Forbidden("not a member of this room")
	}

	// 3. Idempotency.
	if in.ClientMessageID != nil && *in.ClientMessageID != "" {
		if existing, err := s.store.MessageGetByClientID(ctx, in.ChatRoomID, in.SenderID, *in.ClientMessageID); err == nil {
			return s.compose(ctx, existing, in.SenderID)
		}
	}

	// 4. Participants snapshot.
	participants, err := s.store.ParticipantsForRoom(ctx, in.ChatRoomID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	recipients := make([]*domain.User, 0, len(participants))
	for _, p := range participants {
		u, err := s.store.UserGet(ctx, p.UserID)
		if err == nil {
			recipients = append(recipients, u)
		}
	}

	content := in.Content
	isExplicit := false

	// 5. Content policy (plaintext only).
	if content != "" {
		isExplicit = s.profanity.IsExplicit(content)
		mustClean := isExplicit && (!sender.AllowExplicitContent || anyDisallows(recipients))
		if mustClean {
			content = s.profanity.Mask(content)
		}
	}

	// 6. Translation fan-out (plaintext only); translations are attached
	// after the message has an id, since the cache is keyed by message id.
	targets := translationTargets(sender, recipients)

	// 7. TTL clamp.
	expiresAt := s.clampTTL(in.ExpireSeconds, sender)

	// 8. Ciphertext normalization: stored as an opaque string, already the
	// shape the DTO layer decoded it into.
	ciphertext := in.ContentCiphertext

	// 9. Strict-E2EE gate.
	hasBody := content != "" || (ciphertext != nil && *ciphertext != "") || len(in.Attachments) > 0
	if sender.StrictE2EE && hasBody {
		if ciphertext == nil || *ciphertext == "" {
			return nil, apperror.Validation("strict E2EE requires contentCiphertext")
		}
		if len(in.EncryptedKeys) == 0 {
			return nil, apperror.Validation("strict E2EE requires encryptedKeys")
		}
	}
	if !hasBody {
		return nil, apperror.Validation("message must have content, ciphertext, or an attachment")
	}

	msg := &domain.Message{
		ChatRoomID:        in.ChatRoomID,
		SenderID:          in.SenderID,
		ClientMessageID:   in.ClientMessageID,
		RawContent:        content,
		ContentCiphertext: ciphertext,
		IsExplicit:        isExplicit,
		CreatedAt:         time.Now().UTC(),
		ExpiresAt:         expiresAt,
	}

	// 10. Persist: message row, then key rows, then attachments, as separate
	// store calls rather than one transaction. A key or attachment failure
	// after the message row is written is logged and the message is still
	// returned.
	if err := s.store.MessageCreate(ctx, msg); err != nil {
		if err == store.ErrConflict {
			if existing, ferr := s.store.MessageGetByClientID(ctx, in.ChatRoomID, in.SenderID, *in.ClientMessageID); ferr == nil {
				return s.compose(ctx, existing, in.SenderID)
			}
		}
		return nil, apperror.Internal(err)
	}

	if len(in.EncryptedKeys) > 0 {
		keys := make([]domain.MessageKey, 0, len(in.EncryptedKeys))
		for uid, sealed := range in.EncryptedKeys {
			keys = append(keys, domain.MessageKey{MessageID: msg.ID, UserID: uid, EncryptedKey: sealed})
		}
		if err := s.store.MessageKeysPut(ctx, keys); err != nil {
			s.log.Errorw("failed to persist message keys", "error", err, logging.MessageField(msg.ID))
		}
	}

	for _, a := range in.Attachments {
		att := &domain.Attachment{
			MessageID:   msg.ID,
			Kind:        a.Kind,
			URL:         a.URL,
			MimeType:    a.MimeType,
			Width:       a.Width,
			Height:      a.Height,
			DurationSec: a.DurationSec,
			Caption:     a.Caption,
			ThumbURL:    a.ThumbURL,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.store.AttachmentCreate(ctx, att); err != nil {
			s.log.Errorw("failed to persist attachment", "error", err, logging.MessageField(msg.ID))
		}
	}

	if content != "" && len(targets) > 0 && s.translate != nil {
		translations := make(map[string]string)
		for _, lang := range targets {
			if out, err := s.translate.Translate(ctx, msg.ID, content, lang); err == nil {
				translations[lang] = out
			}
		}
		if len(translations) > 0 {
			_ = s.store.MessageUpdate(ctx, msg.ID, map[string]interface{}{"translations": translations})
			msg.Translations = translations
		}
	}

	s.metrics.MessagesCreatedTotal.Inc()

	item, err := s.compose(ctx, msg, in.SenderID)
	if err != nil {
		return nil, err
	}

	// 11. Emit.
	s.emitUpsert(msg.ChatRoomID, item)

	// 12. Side channels (best-effort).
	s.notifyRecipients(participants, in.SenderID, msg)

	return item, nil
}

func (s *Service) notifyRecipients(participants []domain.Participant, senderID int64, msg *domain.Message) {
	recipients := make([]push.Recipient, 0, len(participants))
	for _, p := range participants {
		if p.UserID == senderID {
			continue
		}
		recipients = append(recipients, push.Recipient{UserID: p.UserID})
	}
	preview := msg.RawContent
	if len(preview) > 120 {
		preview = preview[:120]
	}
	s.push.Push(recipients, push.Payload{
		RoomID:    msg.ChatRoomID,
		MessageID: msg.ID,
		SenderID:  senderID,
		Preview:   preview,
	})
}

func (s *Service) clampTTL(expireSeconds *int, sender *domain.User) *time.Time {
	requested := 0
	if expireSeconds != nil {
		requested = *expireSeconds
	} else if sender.AutoDeleteSeconds > 0 {
		requested = sender.AutoDeleteSeconds
	}
	if requested <= 0 {
		return nil
	}

	max := PlanMax[sender.Plan]
	clamped := time.Duration(requested) * time.Second
	if clamped < minExpireSeconds*time.Second {
		clamped = minExpireSeconds * time.Second
	}
	if clamped > max {
		clamped = max
	}
	at := time.Now().UTC().Add(clamped)
	return &at
}

func translationTargets(sender *domain.User, recipients []*domain.User) []string {
	seen := map[string]bool{sender.PreferredLanguage: true}
	var targets []string
	for _, r := range recipients {
		if r.PreferredLanguage == "" || seen[r.PreferredLanguage] {
			continue
		}
		seen[r.PreferredLanguage] = true
		targets = append(targets, r.PreferredLanguage)
	}
	return targets
}

func anyDisallows(users []*domain.User) bool {
	for _, u := range users {
		if !u.AllowExplicitContent {
			return true
		}
	}
	return false
}

func (s *Service) emitUpsert(roomID int64, item *Item) {
	ev, err := realtime.NewEvent(realtime.EventMessageUpsert, roomID, map[string]interface{}{
		"roomId": roomID,
		"item":   item,
	})
	if err != nil {
		s.log.Errorw("failed to build upsert event", "error", err)
		return
	}
	s.hub.Publish(ev)
}
