package constants

const (
	// Panel connection defaults
	DefaultPanelPort = 8000

	// Token cache constants
	TokenCacheKey        = "token"
	CacheCleanupInterval = 10 // minutes

	// User validation constants
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MaxExpireDays     = 3650

	// Traffic constants
	BytesInGB = 1024 * 1024 * 1024

	// Node defaults
	DefaultNodePort     = 62050
	DefaultNodeAPIPort  = 62051
	DefaultUsageCoeff   = 1.0
	MaxNodeNameDisplay  = 17
	MaxNodeNameTruncate = 14

	// QR constants
	DefaultQRSize = 256

	// Formatting constants
	QueryTimeFormat = "2006-01-02T15:04:05"
	TimestampFormat = "2006-01-02 15:04:05"
	DateFormat      = "2006-01-02"
)
