package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/store"
)

func TestScheduled_DueOnlyReturnsMessagesAtOrBeforeCutoff(t *testing.T) {
	a := New()
	ctx := context.Background()
	now := time.Now().UTC()

	due := &domain.ScheduledMessage{ChatRoomID: 1, SenderID: 1, Content: "due", ScheduledAt: now.Add(-time.Minute)}
	notDue := &domain.ScheduledMessage{ChatRoomID: 1, SenderID: 1, Content: "not due", ScheduledAt: now.Add(time.Hour)}
	require.NoError(t, a.ScheduledCreate(ctx, due))
	require.NoError(t, a.ScheduledCreate(ctx, notDue))

	out, err := a.ScheduledDue(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "due", out[0].Content)

	require.NoError(t, a.ScheduledDelete(ctx, due.ID))
	out, err = a.ScheduledDue(ctx, now, 0)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestInvite_CreateRejectsDuplicateCode(t *testing.T) {
	a := New()
	ctx := context.Background()
	inv := &domain.InviteCode{Code: "abc123", ChatRoomID: 1, CreatedAt: time.Now().UTC()}
	require.NoError(t, a.InviteCreate(ctx, inv))

	err := a.InviteCreate(ctx, &domain.InviteCode{Code: "abc123", ChatRoomID: 2, CreatedAt: time.Now().UTC()})
	require.ErrorIs(t, err, store.ErrConflict)

	got, err := a.InviteGet(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ChatRoomID)

	require.NoError(t, a.InviteDelete(ctx, "abc123"))
	_, err = a.InviteGet(ctx, "abc123")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpload_GetMissingReturnsNotFound(t *testing.T) {
	a := New()
	_, err := a.UploadGet(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpload_CreateThenGetRoundTrips(t *testing.T) {
	a := New()
	ctx := context.Background()
	u := &domain.Upload{ID: "up1", OwnerID: 1, Key: "uploads/1/up1", OriginalName: "file.png", MimeType: "image/png", Size: 100}
	require.NoError(t, a.UploadCreate(ctx, u))

	got, err := a.UploadGet(ctx, "up1")
	require.NoError(t, err)
	require.Equal(t, "file.png", got.OriginalName)
}

func TestDevices_UpsertForUsersAndDelete(t *testing.T) {
	a := New()
	ctx := context.Background()

	require.NoError(t, a.DeviceUpsert(ctx, &store.Device{UserID: 1, DeviceID: "d1", Platform: "ios"}))
	require.NoError(t, a.DeviceUpsert(ctx, &store.Device{UserID: 1, DeviceID: "d2", Platform: "android"}))
	require.NoError(t, a.DeviceUpsert(ctx, &store.Device{UserID: 2, DeviceID: "d3", Platform: "web"}))

	devices, err := a.DevicesForUsers(ctx, []int64{1})
	require.NoError(t, err)
	require.Len(t, devices, 2)

	devices, err = a.DevicesForUsers(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, devices, 3)

	require.NoError(t, a.DeviceDelete(ctx, 1, "d1"))
	devices, err = a.DevicesForUsers(ctx, []int64{1})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.Equal(t, "d2", devices[0].DeviceID)
}

func TestMessageCreate_RejectsDuplicateClientMessageIDWithinSameRoomAndSender(t *testing.T) {
	a := New()
	ctx := context.Background()
	clientID := "client-abc"

	first := &domain.Message{ChatRoomID: 1, SenderID: 1, RawContent: "hi", ClientMessageID: &clientID}
	require.NoError(t, a.MessageCreate(ctx, first))

	dup := &domain.Message{ChatRoomID: 1, SenderID: 1, RawContent: "hi again", ClientMessageID: &clientID}
	err := a.MessageCreate(ctx, dup)
	require.ErrorIs(t, err, store.ErrConflict)

	// A different sender (or room) may reuse the same client message id.
	otherSender := &domain.Message{ChatRoomID: 1, SenderID: 2, RawContent: "hi", ClientMessageID: &clientID}
	require.NoError(t, a.MessageCreate(ctx, otherSender))
}

func TestReactionToggle_OnOffSymmetry(t *testing.T) {
	a := New()
	ctx := context.Background()
	msg := &domain.Message{ChatRoomID: 1, SenderID: 1, RawContent: "hi"}
	require.NoError(t, a.MessageCreate(ctx, msg))

	added, err := a.ReactionToggle(ctx, msg.ID, 2, "👍")
	require.NoError(t, err)
	require.True(t, added)

	summary, err := a.ReactionsForMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.Equal(t, 1, summary["👍"])

	added, err = a.ReactionToggle(ctx, msg.ID, 2, "👍")
	require.NoError(t, err)
	require.False(t, added)

	summary, err = a.ReactionsForMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.Equal(t, 0, summary["👍"])
}
