package service

import "errors"

// Service-level failure classes. The HTTP boundary maps these onto status
// codes; everything else surfaces as a generic 500.
var (
	// Validation failures (400)
	ErrSelfConversation       = errors.New("cannot start a conversation with yourself")
	ErrMissingGroupName       = errors.New("group name is required")
	ErrTooManyParticipants    = errors.New("participant limit exceeded")
	ErrEmptyContent           = errors.New("message content is empty")
	ErrTextTooLong            = errors.New("message text exceeds maximum length")
	ErrInvalidContentType     = errors.New("unknown content type")
	ErrEditWindowExpired      = errors.New("edit window has expired")
	ErrUnsupportedContentType = errors.New("only text messages can be edited")
	ErrReplyCrossConversation = errors.New("reply target belongs to another conversation")

	// Authorization failures (403)
	ErrBlocked           = errors.New("messaging is blocked between these users")
	ErrPrivacyDenied     = errors.New("recipient only accepts messages from followers")
	ErrNotParticipant    = errors.New("not a participant of this conversation")
	ErrNotAdmin          = errors.New("admin role required")
	ErrNotAuthor         = errors.New("only the sender can modify this message")
	ErrMutedConversation = errors.New("conversation is muted")

	// Not-found failures (404)
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrUserNotFound         = errors.New("user not found")

	// Conflict / terminal-state failures (400)
	ErrMessageDeleted = errors.New("message has been deleted")
)
