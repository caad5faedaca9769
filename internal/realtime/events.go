package realtime

import "encoding/json"

// ServerEventType enumerates the canonical socket events from spec §6.2.
// message_edited and message_deleted are legacy event names that nothing
// in this core emits; edits and deletes go out as message:upsert
// (REDESIGN: collapse to a single canonical message:upsert).
type ServerEventType string

const (
	EventMessageUpsert  ServerEventType = "message:upsert"
	EventMessageRead    ServerEventType = "message_read"
	EventReactionUpdated ServerEventType = "reaction_updated"
	EventTyping         ServerEventType = "typing:update"
	EventPresence       ServerEventType = "presence"
	EventMessageCopied  ServerEventType = "message_copied"

	// Legacy names, not emitted.
	EventMessageEditedLegacy  ServerEventType = "message_edited"
	EventMessageDeletedLegacy ServerEventType = "message_deleted"
)

// ServerEvent is the envelope every room broadcast carries.
type ServerEvent struct {
	Type    ServerEventType `json:"type"`
	RoomID  int64           `json:"chatRoomId"`
	Payload json.RawMessage `json:"payload"`
}

// ClientCommandType enumerates the inbound socket commands from spec §6.2.
type ClientCommandType string

const (
	CommandJoinRooms    ClientCommandType = "join:rooms"
	CommandLeaveRoom    ClientCommandType = "leave_room"
	CommandTypingUpdate ClientCommandType = "typing:update"
	CommandSendMessage  ClientCommandType = "send_message"
	CommandMessageCopied ClientCommandType = "message_copied"
)

// ClientCommand is the envelope every inbound socket frame is decoded
// into before being dispatched to the relevant handler.
type ClientCommand struct {
	Type    ClientCommandType `json:"type"`
	Payload json.RawMessage   `json:"payload"`
}

func NewEvent(t ServerEventType, roomID int64, payload interface{}) (*ServerEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &ServerEvent{Type: t, RoomID: roomID, Payload: raw}, nil
}
