package config

import "time"

const (
	// MaxChatTitleLength is the maximum length for chat titles.
	// Generated titles are asked for 80 characters; the column allows 255.
	MaxChatTitleLength = 255

	// MaxGeneratedTitleLength bounds titles produced by the title model.
	MaxGeneratedTitleLength = 80

	// MaxMessageTextLength is the maximum length of one text part in an inbound chat message.
	MaxMessageTextLength = 2000

	// DefaultMaxUploadSize is 7 MiB.
	DefaultMaxUploadSize uint64 = 7 << 20

	// DefaultGuestMessagesPerDay and DefaultRegularMessagesPerDay are the entitlement maxima.
	DefaultGuestMessagesPerDay   = 20
	DefaultRegularMessagesPerDay = 100

	// EntitlementWindow is the rolling window for counting user messages.
	EntitlementWindow = 24 * time.Hour

	// MaxGenerationDuration is the hard ceiling for one model generation.
	MaxGenerationDuration = 60 * time.Second

	// MaxModelSteps bounds the model/tool loop per request.
	MaxModelSteps = 5

	// ResumeWindow is how recent the last assistant message must be for the
	// resume fallback to replay it.
	ResumeWindow = 15 * time.Second

	// ResumableStreamTTL is how long stream frames are kept for replay.
	ResumableStreamTTL = time.Hour

	// CatalogTTL is how long the pricing catalog is cached before reloading.
	CatalogTTL = 24 * time.Hour

	// DefaultHistoryLimit is the page size when the history request omits limit.
	DefaultHistoryLimit = 10

	// MaxHistoryLimit caps the page size.
	MaxHistoryLimit = 100

	// SignedURLTTL is the lifetime of file download links.
	SignedURLTTL = 7 * 24 * time.Hour

	// SessionTTL is the lifetime of session tokens.
	SessionTTL = 30 * 24 * time.Hour
)

// AllowedUploadTypes is the MIME allow-list for uploads.
var AllowedUploadTypes = []string{"image/jpeg", "image/png", "image/webp"}

// AllowedAttachmentTypes is the MIME allow-list for files referenced in chat messages.
var AllowedAttachmentTypes = []string{"image/jpeg", "image/png"}
