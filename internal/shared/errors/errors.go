package errors

import "errors"

var (
	ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")

	// Permission verification failures.
	ErrNotAdmin              = errors.New("bot is not an administrator in the chat")
	ErrMissingBanCapability  = errors.New("bot is an administrator but lacks the 'Ban Users' permission")
	ErrChatOrAccountNotFound = errors.New("chat not found or bot is not a member of it")

	// Tenant registry failures.
	ErrChannelTenantNotFound = errors.New("channel tenant not found")
	ErrGroupTenantNotFound   = errors.New("group tenant not found")
	ErrNoTargetConfigured    = errors.New("no target channel configured")

	// Setup flow failures.
	ErrInvalidChannelIdentifier = errors.New("channel identifier must be a @username or a numeric id")
	ErrNotAwaitingInput         = errors.New("setup flow is not awaiting input")
)
