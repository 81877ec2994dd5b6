package constants

// Context keys set by the auth middleware.
const (
	ContextKeyUserID  = "user_id"
	ContextKeyUser    = "user"
	ContextKeyToken   = "token"
	ContextKeySession = "session"
	ContextKeyAccess  = "access"
)

// Pagination limits.
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Validation limits.
const (
	MinPasswordLength = 8
	MaxNameLength     = 255
)

// Stock notification defaults.
const (
	DefaultStockThreshold  = 500
	CriticalStockThreshold = 100
	FallbackRecipientLimit = 10
)
