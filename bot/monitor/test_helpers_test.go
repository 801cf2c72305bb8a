package monitor

import (
	"context"
	"strings"
	"sync"

	botpkg "github.com/flexbet/FlexCodeBot-Go/bot"
)

// nopLogger satisfies botpkg.Logger and discards everything.
type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

func (l nopLogger) With(args ...any) botpkg.Logger { return l }

// stubExtractor returns canned triples for any text.
type stubExtractor struct {
	triples []botpkg.ConversionTriple
}

func (s stubExtractor) Extract(ctx context.Context, text string) []botpkg.ConversionTriple {
	return s.triples
}

// fakeConverter succeeds with CONV<code> unless the code is listed in fail.
type fakeConverter struct {
	mu    sync.Mutex
	calls []botpkg.ConversionRequest
	fail  map[string]error
}

func (f *fakeConverter) Convert(ctx context.Context, req botpkg.ConversionRequest) (*botpkg.ConversionResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if err, ok := f.fail[req.Code]; ok {
		return nil, err
	}
	return &botpkg.ConversionResult{
		OriginalCode:  req.Code,
		ConvertedCode: "CONV" + req.Code,
		Source:        strings.ToLower(req.Source),
		Target:        strings.ToLower(req.Target),
	}, nil
}

func (f *fakeConverter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memRepo is an in-memory botpkg.MessageRepository.
type memRepo struct {
	mu          sync.Mutex
	processed   map[string][]string
	conversions []botpkg.ConversionRecord
	stats       map[string]int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		processed: make(map[string][]string),
		stats:     make(map[string]int64),
	}
}

func dedupKey(transport, kind string) string {
	return transport + "|" + kind
}

func (r *memRepo) MarkProcessed(ctx context.Context, transport, kind, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dedupKey(transport, kind)
	for _, id := range r.processed[key] {
		if id == messageID {
			return nil
		}
	}
	r.processed[key] = append(r.processed[key], messageID)
	return nil
}

func (r *memRepo) IsProcessed(ctx context.Context, transport, kind, messageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.processed[dedupKey(transport, kind)] {
		if id == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) LoadProcessed(ctx context.Context, transport, kind string, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.processed[dedupKey(transport, kind)]
	out := make([]string, 0, len(ids))
	// Newest first, like the real repository.
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, ids[i])
	}
	return out, nil
}

func (r *memRepo) SaveConversion(ctx context.Context, rec *botpkg.ConversionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversions = append(r.conversions, *rec)
	return nil
}

func (r *memRepo) RecentConversions(ctx context.Context, limit int) ([]botpkg.ConversionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]botpkg.ConversionRecord, 0, len(r.conversions))
	for i := len(r.conversions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.conversions[i])
	}
	return out, nil
}

func (r *memRepo) IncrStat(ctx context.Context, key string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[key] += delta
	return nil
}

func (r *memRepo) GetStat(ctx context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats[key], nil
}

func (r *memRepo) StatsSnapshot(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.stats))
	for k, v := range r.stats {
		out[k] = v
	}
	return out, nil
}

func (r *memRepo) markedCount(transport, kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processed[dedupKey(transport, kind)])
}

func (r *memRepo) savedConversions() []botpkg.ConversionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]botpkg.ConversionRecord, len(r.conversions))
	copy(out, r.conversions)
	return out
}

func (r *memRepo) statValue(key string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats[key]
}

// fakeSocial serves scripted mention and DM batches, one batch per poll, and
// records everything sent through it.
type fakeSocial struct {
	mu             sync.Mutex
	name           string
	validateErr    error
	mentionErrs    []error
	mentionBatches [][]botpkg.Mention
	dmBatches      [][]botpkg.DirectMessage
	sinceArgs      []string
	replies        []string
	replyTargets   []string
	dmsSent        []string
	dmRecipients   []string
	mentionPolls   int
	dmPolls        int
}

func (f *fakeSocial) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeSocial) ValidateCredentials(ctx context.Context) error {
	return f.validateErr
}

func (f *fakeSocial) GetMentions(ctx context.Context, sinceID string, limit int) ([]botpkg.Mention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mentionPolls++
	f.sinceArgs = append(f.sinceArgs, sinceID)
	if len(f.mentionErrs) > 0 {
		err := f.mentionErrs[0]
		f.mentionErrs = f.mentionErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.mentionBatches) == 0 {
		return nil, nil
	}
	batch := f.mentionBatches[0]
	f.mentionBatches = f.mentionBatches[1:]
	return batch, nil
}

func (f *fakeSocial) ReplyToMention(ctx context.Context, mention botpkg.Mention, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, text)
	f.replyTargets = append(f.replyTargets, mention.ID)
	return nil
}

func (f *fakeSocial) GetDirectMessages(ctx context.Context, limit int) ([]botpkg.DirectMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dmPolls++
	if len(f.dmBatches) == 0 {
		return nil, nil
	}
	batch := f.dmBatches[0]
	f.dmBatches = f.dmBatches[1:]
	return batch, nil
}

func (f *fakeSocial) SendDirectMessage(ctx context.Context, recipientID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dmsSent = append(f.dmsSent, text)
	f.dmRecipients = append(f.dmRecipients, recipientID)
	return nil
}

func (f *fakeSocial) sentReplies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.replies))
	copy(out, f.replies)
	return out
}

func (f *fakeSocial) sentDMs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.dmsSent))
	copy(out, f.dmsSent)
	return out
}

func (f *fakeSocial) polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mentionPolls
}

// inlinePool runs every task on the caller's goroutine.
type inlinePool struct{}

func (inlinePool) Submit(task func()) error {
	task()
	return nil
}

func (inlinePool) SubmitWait(task func() error) error {
	return task()
}

func (inlinePool) Shutdown(ctx context.Context) error { return nil }

func (inlinePool) Size() int { return 1 }

func cand(name, key string) *botpkg.PlatformCandidate {
	return &botpkg.PlatformCandidate{Name: name, Key: key}
}
