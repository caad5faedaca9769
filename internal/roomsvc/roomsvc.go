// Package roomsvc implements spec §4.2: room creation, membership,
// role transitions, invite codes, and leave/kick — grounded on the
// teacher's topic-subscription management in topic.go, adapted from
// tinode's access-mode bitmask to the role-rank state machine in
// internal/domain.
package roomsvc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/apperror"
	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/idgen"
	"github.com/backboneproto/corechat/internal/store"
)

type Service struct {
	store store.Adapter
	ids   *idgen.Generator
	log   *zap.SugaredLogger
}

func New(st store.Adapter, ids *idgen.Generator, log *zap.SugaredLogger) *Service {
	return &Service{store: st, ids: ids, log: log}
}

// Create builds a new room with the creator seated as OWNER, matching the
// invariant from spec §3: "for any room with ownerId, there is exactly one
// participant with role OWNER and userId == ownerId."
func (s *Service) Create(ctx context.Context, creatorID int64, name *string, isGroup bool) (*domain.ChatRoom, error) {
	room := &domain.ChatRoom{
		Name:              name,
		IsGroup:           isGroup,
		OwnerID:           &creatorID,
		AutoTranslateMode: domain.AutoTranslateOff,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.RoomCreate(ctx, room); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := s.store.ParticipantAdd(ctx, &domain.Participant{
		ChatRoomID: room.ID,
		UserID:     creatorID,
		Role:       domain.RoleOwner,
	}); err != nil {
		return nil, apperror.Internal(err)
	}
	return room, nil
}

// AddParticipant implements "owner or global ADMIN only; default role MEMBER".
func (s *Service) AddParticipant(ctx context.Context, actorID, roomID, targetUserID int64) error {
	if err := s.requireOwnerOrGlobalAdmin(ctx, actorID, roomID); err != nil {
		return err
	}
	if _, err := s.store.ParticipantGet(ctx, roomID, targetUserID); err == nil {
		return apperror.Conflict("user is already a participant")
	}
	return wrapStore(s.store.ParticipantAdd(ctx, &domain.Participant{
		ChatRoomID: roomID,
		UserID:     targetUserID,
		Role:       domain.RoleMember,
	}))
}

// ChangeRole implements spec §4.2's rank rules: only OWNER grants ADMIN;
// OWNER|ADMIN may grant MODERATOR|MEMBER; the owner's own role is
// immutable; no transition may leave a room with zero OWNER.
func (s *Service) ChangeRole(ctx context.Context, actorID, roomID, targetUserID int64, newRole domain.ParticipantRole) error {
	room, err := s.store.RoomGet(ctx, roomID)
	if err != nil {
		return apperror.NotFound("room not found")
	}
	if room.OwnerID != nil && *room.OwnerID == targetUserID {
		return apperror.Forbidden("the owner's role cannot be changed")
	}

	actor, err := s.store.ParticipantGet(ctx, roomID, actorID)
	if err != nil {
		return apperror.Forbidden("not a member of this room")
	}
	target, err := s.store.ParticipantGet(ctx, roomID, targetUserID)
	if err != nil {
		return apperror.NotFound("target is not a participant")
	}

	switch newRole {
	case domain.RoleAdminRoom:
		if actor.Role != domain.RoleOwner {
			return apperror.Forbidden("only the owner may grant ADMIN")
		}
	case domain.RoleModerator, domain.RoleMember:
		if !actor.Role.AtLeast(domain.RoleAdminRoom) {
			return apperror.Forbidden("only an owner or admin may set this role")
		}
	case domain.RoleOwner:
		return apperror.Forbidden("ownership transfer is not supported by this operation")
	default:
		return apperror.Validation("unknown role")
	}

	_ = target
	return wrapStore(s.store.ParticipantSetRole(ctx, roomID, targetUserID, newRole))
}

// Promote is the owner-only shortcut to ADMIN.
func (s *Service) Promote(ctx context.Context, actorID, roomID, targetUserID int64) error {
	return s.ChangeRole(ctx, actorID, roomID, targetUserID, domain.RoleAdminRoom)
}

// Remove implements kick: owner or global ADMIN, never on the owner.
func (s *Service) Remove(ctx context.Context, actorID, roomID, targetUserID int64) error {
	room, err := s.store.RoomGet(ctx, roomID)
	if err != nil {
		return apperror.NotFound("room not found")
	}
	if room.OwnerID != nil && *room.OwnerID == targetUserID {
		return apperror.Forbidden("cannot remove the room owner")
	}
	if err := s.requireOwnerOrGlobalAdmin(ctx, actorID, roomID); err != nil {
		return err
	}
	return wrapStore(s.store.ParticipantRemove(ctx, roomID, targetUserID))
}

// Leave is self-removal; forbidden if the caller is not a member.
func (s *Service) Leave(ctx context.Context, userID, roomID int64) error {
	if _, err := s.store.ParticipantGet(ctx, roomID, userID); err != nil {
		return apperror.Forbidden("not a member of this room")
	}
	return wrapStore(s.store.ParticipantRemove(ctx, roomID, userID))
}

// Archive sets a participant's archivedAt, establishing (part of) the
// §4.5 visibility cutoff.
func (s *Service) Archive(ctx context.Context, userID, roomID int64) error {
	if _, err := s.store.ParticipantGet(ctx, roomID, userID); err != nil {
		return apperror.Forbidden("not a member of this room")
	}
	return wrapStore(s.store.ParticipantArchive(ctx, roomID, userID, time.Now().UTC()))
}

// Clear sets the caller's thread-clear cutoff to now (§4.5 step 1).
func (s *Service) Clear(ctx context.Context, userID, roomID int64) error {
	if _, err := s.store.ParticipantGet(ctx, roomID, userID); err != nil {
		return apperror.Forbidden("not a member of this room")
	}
	return wrapStore(s.store.ThreadClearSet(ctx, userID, roomID, time.Now().UTC()))
}

// CreateInvite mints an opaque code mapped to roomID; owner or global
// ADMIN only.
func (s *Service) CreateInvite(ctx context.Context, actorID, roomID int64, ttl *time.Duration) (*domain.InviteCode, error) {
	if err := s.requireOwnerOrGlobalAdmin(ctx, actorID, roomID); err != nil {
		return nil, err
	}
	inv := &domain.InviteCode{
		Code:       s.ids.NextOpaqueID(),
		ChatRoomID: roomID,
		CreatedAt:  time.Now().UTC(),
	}
	if ttl != nil {
		expires := inv.CreatedAt.Add(*ttl)
		inv.ExpiresAt = &expires
	}
	if err := s.store.InviteCreate(ctx, inv); err != nil {
		return nil, apperror.Internal(err)
	}
	return inv, nil
}

// RedeemInvite joins the caller to the invite's room with role MEMBER.
func (s *Service) RedeemInvite(ctx context.Context, userID int64, code string) (*domain.ChatRoom, error) {
	inv, err := s.store.InviteGet(ctx, code)
	if err != nil {
		return nil, apperror.NotFound("invite not found")
	}
	if inv.ExpiresAt != nil && inv.ExpiresAt.Before(time.Now().UTC()) {
		return nil, apperror.Conflict("invite has expired")
	}
	room, err := s.store.RoomGet(ctx, inv.ChatRoomID)
	if err != nil {
		return nil, apperror.NotFound("room not found")
	}
	if _, err := s.store.ParticipantGet(ctx, inv.ChatRoomID, userID); err == nil {
		return room, nil
	}
	if err := s.store.ParticipantAdd(ctx, &domain.Participant{
		ChatRoomID: inv.ChatRoomID,
		UserID:     userID,
		Role:       domain.RoleMember,
	}); err != nil {
		return nil, apperror.Internal(err)
	}
	return room, nil
}

func (s *Service) requireOwnerOrGlobalAdmin(ctx context.Context, actorID, roomID int64) error {
	actor, err := s.store.ParticipantGet(ctx, roomID, actorID)
	if err == nil && actor.Role == domain.RoleOwner {
		return nil
	}
	user, err := s.store.UserGet(ctx, actorID)
	if err == nil && user.Role == domain.RoleAdmin {
		return nil
	}
	return apperror.Forbidden("requires room ownership or global admin")
}

func wrapStore(err error) error {
	if err == nil {
		return nil
	}
	if err == store.ErrNotFound {
		return apperror.NotFound("not found")
	}
	if err == store.ErrConflict {
		return apperror.Conflict("already exists")
	}
	return apperror.Internal(err)
}
