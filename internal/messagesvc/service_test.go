package messagesvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/apperror"
	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/metrics"
	"github.com/backboneproto/corechat/internal/policy"
	"github.com/backboneproto/corechat/internal/push"
	"github.com/backboneproto/corechat/internal/realtime"
	"github.com/backboneproto/corechat/internal/store"
	"github.com/backboneproto/corechat/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Adapter) {
	return newTestServiceWithWords(t, nil)
}

func newTestServiceWithWords(t *testing.T, words []string) (*Service, *memory.Adapter) {
	t.Helper()
	st := memory.New()
	log := zap.NewNop().Sugar()
	hub := realtime.NewHub(log, metrics.New())
	t.Cleanup(hub.Shutdown)
	svc := New(st, policy.NewProfanityDetector(words), nil, hub, push.NewRegistry(log), metrics.New(), log, time.Hour)
	return svc, st
}

func mustCreateUser(t *testing.T, st *memory.Adapter, mutate func(*domain.User)) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:          "user",
		Email:             "user@example.com",
		PasswordHash:      "x",
		Role:              domain.RoleUser,
		Plan:              domain.PlanFree,
		PreferredLanguage: "en",
		ShowReadReceipts:  true,
	}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, st.UserCreate(context.Background(), u))
	return u
}

func mustCreateRoom(t *testing.T, st *memory.Adapter, members ...int64) *domain.ChatRoom {
	t.Helper()
	r := &domain.ChatRoom{IsGroup: len(members) > 2}
	require.NoError(t, st.RoomCreate(context.Background(), r))
	for _, uid := range members {
		require.NoError(t, st.ParticipantAdd(context.Background(), &domain.Participant{
			ChatRoomID: r.ID, UserID: uid, Role: domain.RoleMember,
		}))
	}
	return r
}

func TestCreate_RejectsNonMember(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	room := mustCreateRoom(t, st) // sender never joined

	_, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "hi"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestCreate_RejectsEmptyBody(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	room := mustCreateRoom(t, st, sender.ID)

	_, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreate_IdempotentOnClientMessageID(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	room := mustCreateRoom(t, st, sender.ID)

	clientID := "abc-123"
	in := CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "hello", ClientMessageID: &clientID}

	first, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID, "re-sending the same clientMessageId must return the original message, not create a duplicate")
}

func TestCreate_StrictE2EERequiresCiphertextAndKeys(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, func(u *domain.User) { u.StrictE2EE = true })
	room := mustCreateRoom(t, st, sender.ID)

	_, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "plaintext not allowed"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeValidation, appErr.Code)

	ciphertext := "opaque-blob"
	_, err = svc.Create(context.Background(), CreateInput{
		SenderID: sender.ID, ChatRoomID: room.ID, ContentCiphertext: &ciphertext,
	})
	appErr, ok = apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeValidation, appErr.Code, "ciphertext without encryptedKeys must still be rejected")

	item, err := svc.Create(context.Background(), CreateInput{
		SenderID: sender.ID, ChatRoomID: room.ID, ContentCiphertext: &ciphertext,
		EncryptedKeys: map[int64]string{sender.ID: "sealed-key"},
	})
	require.NoError(t, err)
	require.Equal(t, &ciphertext, item.ContentCiphertext)
}

func TestCreate_ClampsTTLToPlanMax(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, func(u *domain.User) { u.Plan = domain.PlanFree })
	room := mustCreateRoom(t, st, sender.ID)

	requested := int(30 * 24 * time.Hour / time.Second) // far beyond the free ceiling
	item, err := svc.Create(context.Background(), CreateInput{
		SenderID: sender.ID, ChatRoomID: room.ID, Content: "ephemeral", ExpireSeconds: &requested,
	})
	require.NoError(t, err)
	require.NotNil(t, item.ExpiresAt)

	expiresAt, err := time.Parse(time.RFC3339Nano, *item.ExpiresAt)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(PlanMax[domain.PlanFree]), expiresAt, time.Minute)
}

func TestCreate_ExplicitContentCensoredWhenRecipientDisallows(t *testing.T) {
	svc, st := newTestServiceWithWords(t, []string{"explicit"})
	sender := mustCreateUser(t, st, func(u *domain.User) {
		u.Username, u.Email, u.AllowExplicitContent = "sender", "sender@example.com", true
	})
	recipient := mustCreateUser(t, st, func(u *domain.User) {
		u.Username, u.Email, u.AllowExplicitContent = "recipient", "recipient@example.com", false
	})
	room := mustCreateRoom(t, st, sender.ID, recipient.ID)

	item, err := svc.Create(context.Background(), CreateInput{
		SenderID: sender.ID, ChatRoomID: room.ID, Content: "this is explicit content",
	})
	require.NoError(t, err)
	require.NotNil(t, item.RawContent)
	require.Equal(t, "this is ******** content", *item.RawContent)
}

func TestCreate_ExplicitContentAllowedWhenEveryoneOptsIn(t *testing.T) {
	svc, st := newTestServiceWithWords(t, []string{"explicit"})
	sender := mustCreateUser(t, st, func(u *domain.User) {
		u.Username, u.Email, u.AllowExplicitContent = "sender", "sender@example.com", true
	})
	recipient := mustCreateUser(t, st, func(u *domain.User) {
		u.Username, u.Email, u.AllowExplicitContent = "recipient", "recipient@example.com", true
	})
	room := mustCreateRoom(t, st, sender.ID, recipient.ID)

	item, err := svc.Create(context.Background(), CreateInput{
		SenderID: sender.ID, ChatRoomID: room.ID, Content: "this is explicit content",
	})
	require.NoError(t, err)
	require.Equal(t, "this is explicit content", *item.RawContent)
}

func TestEdit_RejectsAfterRead(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	reader := mustCreateUser(t, st, func(u *domain.User) { u.Username, u.Email = "reader", "reader@example.com" })
	room := mustCreateRoom(t, st, sender.ID, reader.ID)

	item, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "v1"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), item.ID, reader.ID))

	_, err = svc.Edit(context.Background(), EditInput{MessageID: item.ID, EditorID: sender.ID, NewContent: "v2"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestEdit_RejectsNonSender(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	other := mustCreateUser(t, st, func(u *domain.User) { u.Username, u.Email = "other", "other@example.com" })
	room := mustCreateRoom(t, st, sender.ID, other.ID)

	item, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "v1"})
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), EditInput{MessageID: item.ID, EditorID: other.ID, NewContent: "v2"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestEdit_RejectsCiphertextMessage(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	room := mustCreateRoom(t, st, sender.ID)

	ciphertext := "opaque"
	item, err := svc.Create(context.Background(), CreateInput{
		SenderID: sender.ID, ChatRoomID: room.ID, ContentCiphertext: &ciphertext,
		EncryptedKeys: map[int64]string{sender.ID: "k"},
	})
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), EditInput{MessageID: item.ID, EditorID: sender.ID, NewContent: "cannot"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestDelete_ForMeOnlyHidesForCaller(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	other := mustCreateUser(t, st, func(u *domain.User) { u.Username, u.Email = "other", "other@example.com" })
	room := mustCreateRoom(t, st, sender.ID, other.ID)

	item, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "v1"})
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), item.ID, other.ID, DeleteScopeMe)
	require.NoError(t, err)

	exists, err := st.DeletionExists(context.Background(), item.ID, other.ID)
	require.NoError(t, err)
	require.True(t, exists)

	msg, err := st.MessageGet(context.Background(), item.ID)
	require.NoError(t, err)
	require.False(t, msg.DeletedForAll, "delete-for-me must not tombstone the message for everyone")
}

func TestDelete_ForAllRequiresSenderOrAdmin(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	other := mustCreateUser(t, st, func(u *domain.User) { u.Username, u.Email = "other", "other@example.com" })
	room := mustCreateRoom(t, st, sender.ID, other.ID)

	item, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "v1"})
	require.NoError(t, err)
	require.NoError(t, st.MessageUpdate(context.Background(), item.ID, map[string]interface{}{
		"contentCiphertext": "leftover-sealed-bytes",
		"translations":      map[string]string{"es": "v1-es"},
	}))

	_, err = svc.Delete(context.Background(), item.ID, other.ID, DeleteScopeAll)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeForbidden, appErr.Code)

	_, err = svc.Delete(context.Background(), item.ID, sender.ID, DeleteScopeAll)
	require.NoError(t, err)

	msg, err := st.MessageGet(context.Background(), item.ID)
	require.NoError(t, err)
	require.True(t, msg.DeletedForAll)
	require.Empty(t, msg.RawContent)
	require.NotNil(t, msg.ContentCiphertext)
	require.Empty(t, *msg.ContentCiphertext)
	require.Empty(t, msg.Translations)
}

func TestReact_TogglesOnAndOff(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	room := mustCreateRoom(t, st, sender.ID)

	item, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "v1"})
	require.NoError(t, err)

	require.NoError(t, svc.React(context.Background(), item.ID, sender.ID, "👍"))
	summary, err := st.ReactionsForMessage(context.Background(), item.ID)
	require.NoError(t, err)
	require.Equal(t, 1, summary["👍"])

	require.NoError(t, svc.React(context.Background(), item.ID, sender.ID, "👍"))
	summary, err = st.ReactionsForMessage(context.Background(), item.ID)
	require.NoError(t, err)
	require.Equal(t, 0, summary["👍"])
}

func TestList_HidesMessagesAtOrBeforeThreadClear(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	room := mustCreateRoom(t, st, sender.ID)

	_, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "before clear"})
	require.NoError(t, err)

	cutoff := time.Now().UTC()
	time.Sleep(time.Millisecond)

	require.NoError(t, st.ThreadClearSet(context.Background(), sender.ID, room.ID, cutoff))

	_, err = svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "after clear"})
	require.NoError(t, err)

	res, err := svc.List(context.Background(), ListInput{ChatRoomID: room.ID, CallerID: sender.ID})
	require.NoError(t, err)
	require.Len(t, res.Items, 1, "only the message created after the clear cutoff should surface")
	require.Equal(t, "after clear", derefOr(res.Items[0].RawContent, ""))
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func TestList_RejectsNonMember(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	outsider := mustCreateUser(t, st, func(u *domain.User) { u.Username, u.Email = "outsider", "outsider@example.com" })
	room := mustCreateRoom(t, st, sender.ID)

	_, err := svc.List(context.Background(), ListInput{ChatRoomID: room.ID, CallerID: outsider.ID})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestList_CursorWalksEveryMessageAcrossPages(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	room := mustCreateRoom(t, st, sender.ID)

	const total = 5
	var created []int64
	for i := 0; i < total; i++ {
		item, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "v"})
		require.NoError(t, err)
		created = append(created, item.ID)
	}

	var seen []int64
	var cursor *int64
	for {
		res, err := svc.List(context.Background(), ListInput{ChatRoomID: room.ID, CallerID: sender.ID, Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		require.LessOrEqual(t, len(res.Items), 2)
		for _, it := range res.Items {
			seen = append(seen, it.ID)
		}
		if res.NextCursor == nil {
			break
		}
		cursor = res.NextCursor
	}

	require.Len(t, seen, total, "every message must surface exactly once across paginated calls, none skipped at page boundaries")
}

func TestMarkReadBulk_SkipsRoomsCallerDoesNotBelongTo(t *testing.T) {
	svc, st := newTestService(t)
	sender := mustCreateUser(t, st, nil)
	intruder := mustCreateUser(t, st, func(u *domain.User) { u.Username, u.Email = "intruder", "intruder@example.com" })
	room := mustCreateRoom(t, st, sender.ID)

	item, err := svc.Create(context.Background(), CreateInput{SenderID: sender.ID, ChatRoomID: room.ID, Content: "v1"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkReadBulk(context.Background(), intruder.ID, []int64{item.ID}))

	reads, err := st.ReadsForMessage(context.Background(), item.ID)
	require.NoError(t, err)
	require.Empty(t, reads, "a caller who isn't a room member must not get a read receipt recorded")
}

var _ store.Adapter = (*memory.Adapter)(nil)
