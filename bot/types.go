package bot

import "time"

// PlatformCandidate is a platform name spotted in message text. Name keeps
// the title-cased form as extracted; Key is the canonical registry key when
// the name resolves to a known platform, otherwise the lower-cased name.
type PlatformCandidate struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// ConversionTriple is one resolved conversion request. Source and Target are
// nil when the user did not state them; the caller must ask for
// clarification before converting.
type ConversionTriple struct {
	Code   string             `json:"code"`
	Source *PlatformCandidate `json:"source_platform,omitempty"`
	Target *PlatformCandidate `json:"target_platform,omitempty"`
}

// Entity is one span returned by the named-entity recognition service. The
// json tags follow the HuggingFace inference payload: aggregated responses
// carry entity_group, raw token responses carry entity.
type Entity struct {
	Group string  `json:"entity_group"`
	Label string  `json:"entity"`
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

// Mention is an inbound public message addressed to the bot.
type Mention struct {
	ID           string
	AuthorID     string
	AuthorHandle string
	Text         string
	CreatedAt    time.Time
}

// DirectMessage is an inbound private message to the bot.
type DirectMessage struct {
	ID        string
	SenderID  string
	Text      string
	CreatedAt time.Time
}

// ConversionRequest asks the conversion service to translate one code
// between two platforms. Source and Target hold the names as extracted;
// the converter canonicalizes them against the registry.
type ConversionRequest struct {
	Code   string
	Source string
	Target string
}

// ConversionResult is the outcome of a single conversion call.
type ConversionResult struct {
	OriginalCode  string
	ConvertedCode string
	Source        string
	Target        string
	Message       string
	Simulated     bool
}

// ConversionRecord is the persisted history entry for a conversion attempt.
type ConversionRecord struct {
	ID             uint      `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Code           string    `json:"code"`
	SourcePlatform string    `json:"source_platform"`
	TargetPlatform string    `json:"target_platform"`
	ConvertedCode  string    `json:"converted_code,omitempty"`
	Status         string    `json:"status"`
	Transport      string    `json:"transport,omitempty"`
	MessageID      string    `json:"message_id,omitempty"`
	AuthorID       string    `json:"author_id,omitempty"`
	Simulated      bool      `json:"simulated,omitempty"`
}

// SessionStats are the per-session counters a monitor session accumulates.
type SessionStats struct {
	MentionsProcessed int64  `json:"mentions_processed"`
	DMsProcessed      int64  `json:"dms_processed"`
	RepliesSent       int64  `json:"replies_sent"`
	Conversions       int64  `json:"conversions"`
	Failures          int64  `json:"failures"`
	LastMentionID     string `json:"last_mention_id,omitempty"`
	LastPollError     string `json:"last_poll_error,omitempty"`
}

// Status is the point-in-time snapshot served by the ops API.
type Status struct {
	Running    bool                    `json:"running"`
	StartedAt  time.Time               `json:"started_at"`
	Transports map[string]SessionStats `json:"transports"`
}
