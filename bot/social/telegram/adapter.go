package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"

	botpkg "github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/social"
)

const (
	replyCharLimit = 4096
	maxBuffered    = 512
)

// Adapter bridges Telegram long polling onto the polling transport
// interface. Updates are buffered as they arrive; GetMentions and
// GetDirectMessages hand them out in batches and the poll cursor argument
// is ignored because long polling already delivers each update once.
//
// Private chats map to direct messages. Group messages count as mentions
// only when they name the bot's @username.
type Adapter struct {
	client  *telego.Bot
	limiter *social.RateLimiter
	logger  botpkg.Logger

	mu       sync.Mutex
	botName  string
	mentions []botpkg.Mention
	dms      []botpkg.DirectMessage
}

// Options carry optional connection settings.
type Options struct {
	APIServer string
	Debug     bool
}

// New builds the Telegram transport. The adapter is inert until Start.
func New(token string, opts Options, limiter *social.RateLimiter, logger botpkg.Logger) (*Adapter, error) {
	if token == "" {
		return nil, errors.New("telegram: token required")
	}

	pollTransport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	pollClient := &http.Client{
		Timeout:   2 * time.Minute,
		Transport: pollTransport,
	}

	options := []telego.BotOption{
		telego.WithHTTPClient(pollClient),
		telego.WithLogger(telegoLogger{logger: logger}),
	}
	if opts.APIServer != "" {
		options = append(options, telego.WithAPIServer(opts.APIServer))
	}
	if opts.Debug {
		options = append(options, telego.WithDebugMode())
	}

	client, err := telego.NewBot(token, options...)
	if err != nil {
		return nil, err
	}

	return &Adapter{client: client, limiter: limiter, logger: logger}, nil
}

// Start resolves the bot identity and begins consuming updates. It returns
// once polling is running; the update stream stops when ctx is canceled.
func (a *Adapter) Start(ctx context.Context) error {
	if err := a.ValidateCredentials(ctx); err != nil {
		return err
	}

	updates, err := a.client.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("telegram: start long polling: %w", err)
	}

	go func() {
		for update := range updates {
			a.handleUpdate(update)
		}
		if a.logger != nil {
			a.logger.Info("telegram: update stream closed")
		}
	}()

	if a.logger != nil {
		a.logger.Info("telegram: long polling started", "bot", a.name())
	}
	return nil
}

// Name identifies this transport in logs, stats and persisted state.
func (a *Adapter) Name() string {
	return "telegram"
}

// ValidateCredentials checks the token by fetching the bot account and
// records its username for mention matching.
func (a *Adapter) ValidateCredentials(ctx context.Context) error {
	me, err := a.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram: credential validation failed: %w", err)
	}

	a.mu.Lock()
	a.botName = me.Username
	a.mu.Unlock()

	if a.logger != nil {
		a.logger.Info("telegram: credentials validated", "username", me.Username)
	}
	return nil
}

func (a *Adapter) handleUpdate(update telego.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	if msg.Chat.Type == "private" {
		a.bufferDM(botpkg.DirectMessage{
			ID:        messageRef(msg.Chat.ID, msg.MessageID),
			SenderID:  strconv.FormatInt(msg.Chat.ID, 10),
			Text:      msg.Text,
			CreatedAt: time.Unix(msg.Date, 0),
		})
		return
	}

	if !a.mentionsBot(msg.Text) {
		return
	}

	var authorID, handle string
	if msg.From != nil {
		authorID = strconv.FormatInt(msg.From.ID, 10)
		handle = msg.From.Username
	}
	a.bufferMention(botpkg.Mention{
		ID:           messageRef(msg.Chat.ID, msg.MessageID),
		AuthorID:     authorID,
		AuthorHandle: handle,
		Text:         msg.Text,
		CreatedAt:    time.Unix(msg.Date, 0),
	})
}

func (a *Adapter) mentionsBot(text string) bool {
	a.mu.Lock()
	botName := a.botName
	a.mu.Unlock()

	if botName == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), "@"+strings.ToLower(botName))
}

func (a *Adapter) bufferMention(m botpkg.Mention) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.mentions) >= maxBuffered {
		a.mentions = a.mentions[1:]
		if a.logger != nil {
			a.logger.Warn("telegram: mention buffer full, dropping oldest")
		}
	}
	a.mentions = append(a.mentions, m)
}

func (a *Adapter) bufferDM(dm botpkg.DirectMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.dms) >= maxBuffered {
		a.dms = a.dms[1:]
		if a.logger != nil {
			a.logger.Warn("telegram: dm buffer full, dropping oldest")
		}
	}
	a.dms = append(a.dms, dm)
}

// GetMentions drains up to limit buffered mentions.
func (a *Adapter) GetMentions(ctx context.Context, sinceID string, limit int) ([]botpkg.Mention, error) {
	_ = sinceID
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.mentions)
	if limit > 0 && n > limit {
		n = limit
	}
	if n == 0 {
		return nil, nil
	}

	out := make([]botpkg.Mention, n)
	copy(out, a.mentions[:n])
	a.mentions = a.mentions[n:]
	return out, nil
}

// GetDirectMessages drains up to limit buffered private messages.
func (a *Adapter) GetDirectMessages(ctx context.Context, limit int) ([]botpkg.DirectMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.dms)
	if limit > 0 && n > limit {
		n = limit
	}
	if n == 0 {
		return nil, nil
	}

	out := make([]botpkg.DirectMessage, n)
	copy(out, a.dms[:n])
	a.dms = a.dms[n:]
	return out, nil
}

// ReplyToMention answers in the chat the mention came from, threaded on the
// original message.
func (a *Adapter) ReplyToMention(ctx context.Context, mention botpkg.Mention, text string) error {
	chatID, messageID, err := parseRef(mention.ID)
	if err != nil {
		return err
	}

	text = social.TruncateReply(text, replyCharLimit)
	return social.WithRetry(ctx, a.limiter, strconv.FormatInt(chatID, 10), func() error {
		_, err := a.client.SendMessage(ctx, &telego.SendMessageParams{
			ChatID:          telego.ChatID{ID: chatID},
			Text:            text,
			ReplyParameters: &telego.ReplyParameters{MessageID: messageID},
		})
		return err
	})
}

// SendDirectMessage sends text to a private chat. recipientID is the chat
// ID as recorded in DirectMessage.SenderID.
func (a *Adapter) SendDirectMessage(ctx context.Context, recipientID, text string) error {
	chatID, err := strconv.ParseInt(recipientID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: bad recipient id %q: %w", recipientID, err)
	}

	text = social.TruncateReply(text, replyCharLimit)
	return social.WithRetry(ctx, a.limiter, recipientID, func() error {
		_, err := a.client.SendMessage(ctx, &telego.SendMessageParams{
			ChatID: telego.ChatID{ID: chatID},
			Text:   text,
		})
		return err
	})
}

func (a *Adapter) name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.botName
}

// messageRef packs chat and message IDs into one transport-level message ID.
func messageRef(chatID int64, messageID int) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}

func parseRef(ref string) (int64, int, error) {
	chatPart, msgPart, ok := strings.Cut(ref, ":")
	if !ok {
		return 0, 0, fmt.Errorf("telegram: malformed message ref %q", ref)
	}
	chatID, err := strconv.ParseInt(chatPart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("telegram: malformed message ref %q: %w", ref, err)
	}
	messageID, err := strconv.Atoi(msgPart)
	if err != nil {
		return 0, 0, fmt.Errorf("telegram: malformed message ref %q: %w", ref, err)
	}
	return chatID, messageID, nil
}

type telegoLogger struct {
	logger botpkg.Logger
}

func (l telegoLogger) Debugf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l telegoLogger) Errorf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Error(fmt.Sprintf(format, args...))
}
