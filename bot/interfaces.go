package bot

import "context"

// Logger is the minimal logging abstraction used across modules.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Config provides typed access to configuration values.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetIntSlice(key string) []int
}

// EntityRecognizer is the external named-entity recognition collaborator.
// Implementations make a single bounded attempt per call; the recognizer
// treats any error as zero entities.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// CodeConverter translates a betting code between two platforms.
type CodeConverter interface {
	Convert(ctx context.Context, req ConversionRequest) (*ConversionResult, error)
}

// SocialClient is a polling transport for inbound mentions and direct
// messages and for delivering the bot's replies.
type SocialClient interface {
	Name() string
	ValidateCredentials(ctx context.Context) error
	GetMentions(ctx context.Context, sinceID string, limit int) ([]Mention, error)
	ReplyToMention(ctx context.Context, mention Mention, text string) error
	GetDirectMessages(ctx context.Context, limit int) ([]DirectMessage, error)
	SendDirectMessage(ctx context.Context, recipientID, text string) error
}

// MessageRepository persists dedup state, conversion history and counters.
type MessageRepository interface {
	MarkProcessed(ctx context.Context, transport, kind, messageID string) error
	IsProcessed(ctx context.Context, transport, kind, messageID string) (bool, error)
	LoadProcessed(ctx context.Context, transport, kind string, limit int) ([]string, error)
	SaveConversion(ctx context.Context, rec *ConversionRecord) error
	RecentConversions(ctx context.Context, limit int) ([]ConversionRecord, error)
	IncrStat(ctx context.Context, key string, delta int64) error
	GetStat(ctx context.Context, key string) (int64, error)
	StatsSnapshot(ctx context.Context) (map[string]int64, error)
}

// WorkerPool limits concurrency for background tasks.
type WorkerPool interface {
	Submit(task func()) error
	SubmitWait(task func() error) error
	Shutdown(ctx context.Context) error
	Size() int
}
