package httpapi

// Request bodies are validated with go-playground/validator/v10, matching
// the teacher's own use of struct tags for payload shape enforcement
// (adapted here from tinode's JSON wire envelope to REST request bodies).

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type mfaLoginRequest struct {
	MFAToken string `json:"mfaToken" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type createMessageRequest struct {
	ChatRoomID        int64             `json:"chatRoomId" binding:"required"`
	Content           string            `json:"content"`
	ContentCiphertext *string           `json:"contentCiphertext"`
	EncryptedKeys     map[string]string `json:"encryptedKeys"`
	ClientMessageID   *string           `json:"clientMessageId"`
	ExpireSeconds     *int              `json:"expireSeconds"`
	Attachments       []attachmentDTO   `json:"attachments"`
}

type attachmentDTO struct {
	Kind        string   `json:"kind" binding:"required"`
	URL         string   `json:"url" binding:"required"`
	MimeType    string   `json:"mimeType" binding:"required"`
	Width       *int     `json:"width"`
	Height      *int     `json:"height"`
	DurationSec *float64 `json:"durationSec"`
	Caption     *string  `json:"caption"`
	ThumbURL    *string  `json:"thumbUrl"`
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

type markReadBulkRequest struct {
	MessageIDs []int64 `json:"messageIds" binding:"required"`
}

type createRoomRequest struct {
	Name    *string `json:"name"`
	IsGroup bool    `json:"isGroup"`
}

type addParticipantRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type createInviteRequest struct {
	TTLSeconds *int `json:"ttlSeconds"`
}

type redeemInviteRequest struct {
	Code string `json:"code" binding:"required"`
}

type scheduleMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	ScheduledAt string `json:"scheduledAt" binding:"required"`
}

type forwardMessageRequest struct {
	TargetChatRoomID int64 `json:"targetChatRoomId" binding:"required"`
}

type uploadIntentRequest struct {
	OriginalName string `json:"originalName" binding:"required"`
	MimeType     string `json:"mimeType" binding:"required"`
}

type uploadCompleteRequest struct {
	Key          string `json:"key" binding:"required"`
	OriginalName string `json:"originalName" binding:"required"`
	MimeType     string `json:"mimeType" binding:"required"`
	Size         int64  `json:"size" binding:"required"`
}
