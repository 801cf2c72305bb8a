package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/metrics"
	"github.com/flexbet/FlexCodeBot-Go/bot/social"
)

const (
	defaultMentionInterval = 30 * time.Second
	defaultDMInterval      = 60 * time.Second
	defaultBatchSize       = 10
	defaultWarmLimit       = 1000
	defaultReplyLimit      = 280
)

// SessionConfig wires one transport session.
type SessionConfig struct {
	Client    bot.SocialClient
	Responder *Responder
	Repo      bot.MessageRepository
	Pool      bot.WorkerPool
	Limiter   *social.RateLimiter
	Metrics   *metrics.Collector
	Logger    bot.Logger

	// Zero values select the defaults above.
	MentionInterval time.Duration
	DMInterval      time.Duration
	BatchSize       int
	WarmLimit       int
	ReplyLimit      int
}

// Session polls one transport for mentions and direct messages, hands each
// new message to the responder on the worker pool, and delivers the reply.
// A message is claimed in memory and marked processed in the repository
// before its task is submitted, so a crash drops a message rather than
// answering it twice.
type Session struct {
	client    bot.SocialClient
	responder *Responder
	repo      bot.MessageRepository
	pool      bot.WorkerPool
	limiter   *social.RateLimiter
	metrics   *metrics.Collector
	log       bot.Logger

	mentionInterval time.Duration
	dmInterval      time.Duration
	batchSize       int
	warmLimit       int
	replyLimit      int

	mu           sync.Mutex
	seenMentions map[string]struct{}
	seenDMs      map[string]struct{}
	sinceID      string
	stats        bot.SessionStats
}

// NewSession validates the wiring and applies defaults.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Client == nil {
		return nil, errors.New("monitor: session needs a social client")
	}
	if cfg.Responder == nil {
		return nil, errors.New("monitor: session needs a responder")
	}
	if cfg.Pool == nil {
		return nil, errors.New("monitor: session needs a worker pool")
	}

	s := &Session{
		client:          cfg.Client,
		responder:       cfg.Responder,
		repo:            cfg.Repo,
		pool:            cfg.Pool,
		limiter:         cfg.Limiter,
		metrics:         cfg.Metrics,
		log:             cfg.Logger,
		mentionInterval: cfg.MentionInterval,
		dmInterval:      cfg.DMInterval,
		batchSize:       cfg.BatchSize,
		warmLimit:       cfg.WarmLimit,
		replyLimit:      cfg.ReplyLimit,
		seenMentions:    make(map[string]struct{}),
		seenDMs:         make(map[string]struct{}),
	}
	if s.mentionInterval <= 0 {
		s.mentionInterval = defaultMentionInterval
	}
	if s.dmInterval <= 0 {
		s.dmInterval = defaultDMInterval
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.warmLimit <= 0 {
		s.warmLimit = defaultWarmLimit
	}
	if s.replyLimit <= 0 {
		s.replyLimit = defaultReplyLimit
	}
	return s, nil
}

// Name identifies the session's transport.
func (s *Session) Name() string {
	return s.client.Name()
}

// Validate checks the transport credentials.
func (s *Session) Validate(ctx context.Context) error {
	return s.client.ValidateCredentials(ctx)
}

// Warm preloads the dedup sets from persisted state so a restart does not
// answer old messages again. The newest persisted mention becomes the poll
// cursor.
func (s *Session) Warm(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	mentions, err := s.repo.LoadProcessed(ctx, s.Name(), KindMention, s.warmLimit)
	if err != nil {
		return err
	}
	dms, err := s.repo.LoadProcessed(ctx, s.Name(), KindDM, s.warmLimit)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range mentions {
		s.seenMentions[id] = struct{}{}
	}
	for _, id := range dms {
		s.seenDMs[id] = struct{}{}
	}
	// LoadProcessed returns newest first.
	if len(mentions) > 0 {
		s.sinceID = mentions[0]
		s.stats.LastMentionID = mentions[0]
	}

	if s.log != nil {
		s.log.Info("dedup state warmed",
			"transport", s.Name(), "mentions", len(mentions), "dms", len(dms))
	}
	return nil
}

// RunMentions polls for mentions until ctx is canceled.
func (s *Session) RunMentions(ctx context.Context) error {
	return s.runLoop(ctx, KindMention, s.mentionInterval, s.pollMentions)
}

// RunDMs polls for direct messages until ctx is canceled.
func (s *Session) RunDMs(ctx context.Context) error {
	return s.runLoop(ctx, KindDM, s.dmInterval, s.pollDMs)
}

// runLoop polls immediately, then keeps polling every interval. A failed
// cycle doubles the wait once and is counted, never fatal; only context
// cancellation ends the loop.
func (s *Session) runLoop(ctx context.Context, kind string, interval time.Duration, poll func(context.Context) error) error {
	var wait time.Duration
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if err := poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.metrics.RecordPollError(s.Name(), kind)
			s.notePollError(err)
			if s.log != nil {
				s.log.Error("poll cycle failed", "transport", s.Name(), "kind", kind, "err", err)
			}
			wait = 2 * interval
			continue
		}
		wait = interval
	}
}

func (s *Session) pollMentions(ctx context.Context) error {
	s.mu.Lock()
	sinceID := s.sinceID
	s.mu.Unlock()

	mentions, err := s.client.GetMentions(ctx, sinceID, s.batchSize)
	if err != nil {
		return err
	}

	for _, m := range mentions {
		mention := m
		if !s.claim(ctx, KindMention, mention.ID) {
			continue
		}

		s.mu.Lock()
		s.sinceID = mention.ID
		s.stats.LastMentionID = mention.ID
		s.mu.Unlock()

		if err := s.pool.Submit(func() { s.handleMention(ctx, mention) }); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) pollDMs(ctx context.Context) error {
	dms, err := s.client.GetDirectMessages(ctx, s.batchSize)
	if err != nil {
		return err
	}

	for _, d := range dms {
		dm := d
		if !s.claim(ctx, KindDM, dm.ID) {
			continue
		}
		if err := s.pool.Submit(func() { s.handleDM(ctx, dm) }); err != nil {
			return err
		}
	}
	return nil
}

// claim reserves a message for processing. It returns false when the message
// was already seen in this session or in persisted state. The repository row
// is written before the handler runs.
func (s *Session) claim(ctx context.Context, kind, messageID string) bool {
	seen := s.seenMentions
	if kind == KindDM {
		seen = s.seenDMs
	}

	s.mu.Lock()
	if _, ok := seen[messageID]; ok {
		s.mu.Unlock()
		return false
	}
	seen[messageID] = struct{}{}
	s.mu.Unlock()

	if s.repo == nil {
		return true
	}

	processed, err := s.repo.IsProcessed(ctx, s.Name(), kind, messageID)
	if err != nil {
		if s.log != nil {
			s.log.Warn("dedup lookup failed", "transport", s.Name(), "kind", kind, "err", err)
		}
	} else if processed {
		return false
	}

	if err := s.repo.MarkProcessed(ctx, s.Name(), kind, messageID); err != nil && s.log != nil {
		s.log.Warn("mark processed failed", "transport", s.Name(), "kind", kind, "err", err)
	}
	return true
}

func (s *Session) handleMention(ctx context.Context, m bot.Mention) {
	result, err := s.responder.Process(ctx, Inbound{
		Transport: s.Name(),
		Kind:      KindMention,
		MessageID: m.ID,
		AuthorID:  m.AuthorID,
		Text:      m.Text,
	})
	if err != nil {
		s.noteFailure(err)
		return
	}

	s.metrics.RecordMessage(s.Name(), KindMention)
	s.bumpStat(ctx, "mentions_processed", func(st *bot.SessionStats) { st.MentionsProcessed++ })
	s.countConversions(result)

	if err := s.throttleAuthor(ctx, m.AuthorID); err != nil {
		s.noteFailure(err)
		return
	}

	reply := social.TruncateReply(result.Reply, s.replyLimit)
	if err := s.client.ReplyToMention(ctx, m, reply); err != nil {
		if s.log != nil {
			s.log.Error("reply delivery failed",
				"transport", s.Name(), "message_id", m.ID, "err", err)
		}
		s.noteFailure(err)
		return
	}

	s.metrics.RecordReply(s.Name(), KindMention)
	s.bumpStat(ctx, "replies_sent", func(st *bot.SessionStats) { st.RepliesSent++ })
	if s.log != nil {
		s.log.Info("mention answered",
			"transport", s.Name(), "message_id", m.ID, "outcome", result.Outcome)
	}
}

func (s *Session) handleDM(ctx context.Context, dm bot.DirectMessage) {
	result, err := s.responder.Process(ctx, Inbound{
		Transport: s.Name(),
		Kind:      KindDM,
		MessageID: dm.ID,
		AuthorID:  dm.SenderID,
		Text:      dm.Text,
	})
	if err != nil {
		s.noteFailure(err)
		return
	}

	s.metrics.RecordMessage(s.Name(), KindDM)
	s.bumpStat(ctx, "dms_processed", func(st *bot.SessionStats) { st.DMsProcessed++ })
	s.countConversions(result)

	if err := s.throttleAuthor(ctx, dm.SenderID); err != nil {
		s.noteFailure(err)
		return
	}

	reply := social.TruncateReply(result.Reply, s.replyLimit)
	if err := s.client.SendDirectMessage(ctx, dm.SenderID, reply); err != nil {
		if s.log != nil {
			s.log.Error("dm delivery failed",
				"transport", s.Name(), "message_id", dm.ID, "err", err)
		}
		s.noteFailure(err)
		return
	}

	s.metrics.RecordReply(s.Name(), KindDM)
	s.bumpStat(ctx, "replies_sent", func(st *bot.SessionStats) { st.RepliesSent++ })
	if s.log != nil {
		s.log.Info("dm answered",
			"transport", s.Name(), "message_id", dm.ID, "outcome", result.Outcome)
	}
}

// throttleAuthor spaces out replies to a single author.
func (s *Session) throttleAuthor(ctx context.Context, authorID string) error {
	if s.limiter == nil || authorID == "" {
		return nil
	}
	return s.limiter.Wait(ctx, "author:"+authorID)
}

func (s *Session) countConversions(result *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range result.Conversions {
		s.stats.Conversions++
		if !conv.Success {
			s.stats.Failures++
		}
	}
}

// bumpStat updates the in-memory counter and mirrors it into the persisted
// stats table under "<transport>.<key>".
func (s *Session) bumpStat(ctx context.Context, key string, apply func(*bot.SessionStats)) {
	s.mu.Lock()
	apply(&s.stats)
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	if err := s.repo.IncrStat(ctx, s.Name()+"."+key, 1); err != nil && s.log != nil {
		s.log.Warn("bump stat failed", "key", key, "err", err)
	}
}

func (s *Session) noteFailure(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.stats.Failures++
	s.mu.Unlock()
}

func (s *Session) notePollError(err error) {
	s.mu.Lock()
	s.stats.LastPollError = err.Error()
	s.mu.Unlock()
}

// markUp flips the session gauge.
func (s *Session) markUp(up bool) {
	s.metrics.SetSessionUp(s.Name(), up)
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() bot.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
