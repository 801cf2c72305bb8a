package x

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"

	botpkg "github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/social"
)

// DefaultBaseURL is the X API v2 host.
const DefaultBaseURL = "https://api.twitter.com"

const (
	replyCharLimit = 280
	dmCharLimit    = 10000

	readKey  = "read"
	writeKey = "write"
)

// Credentials are the OAuth 1.0a user-context keys for the bot account.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Complete reports whether every credential field is set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

// Client talks to the X API v2 with OAuth 1.0a request signing. The rate
// limiter plays the role of tweepy's wait_on_rate_limit: every request
// first takes a token from the read or write bucket.
type Client struct {
	httpClient *retryablehttp.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *social.RateLimiter
	logger     botpkg.Logger
	baseURL    string

	mu   sync.Mutex
	self *userObject

	maxRetries int
	minBackoff time.Duration
	maxBackoff time.Duration
}

type userObject struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type tweetObject struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type mentionsResponse struct {
	Data     []tweetObject `json:"data"`
	Includes struct {
		Users []userObject `json:"users"`
	} `json:"includes"`
	Meta struct {
		NewestID    string `json:"newest_id"`
		ResultCount int    `json:"result_count"`
	} `json:"meta"`
}

type dmEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Text      string    `json:"text"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

type dmEventsResponse struct {
	Data []dmEvent `json:"data"`
}

type tweetReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type createTweetPayload struct {
	Text  string      `json:"text"`
	Reply *tweetReply `json:"reply,omitempty"`
}

// New returns an X client. An empty baseURL selects DefaultBaseURL.
func New(logger botpkg.Logger, limiter *social.RateLimiter, creds Credentials, baseURL string) (*Client, error) {
	if !creds.Complete() {
		return nil, errors.New("x: incomplete credentials")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		httpClient: retryablehttp.NewClient(),
		limiter:    limiter,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: 3,
		minBackoff: 1 * time.Second,
		maxBackoff: 5 * time.Second,
	}

	// Every request goes out through the signing transport.
	signing := oauth1.NewConfig(creds.APIKey, creds.APISecret).
		Client(oauth1.NoContext, oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret))
	signing.Timeout = 30 * time.Second

	c.httpClient.HTTPClient = signing
	c.httpClient.RetryMax = c.maxRetries
	c.httpClient.RetryWaitMin = c.minBackoff
	c.httpClient.RetryWaitMax = c.maxBackoff
	c.httpClient.Logger = nil

	settings := gobreaker.Settings{
		Name:        "x-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker(settings)

	return c, nil
}

// Name identifies this transport in logs, stats and persisted state.
func (c *Client) Name() string {
	return "x"
}

// ValidateCredentials fetches the authenticated account and primes the
// cached identity.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	c.mu.Lock()
	c.self = nil
	c.mu.Unlock()

	me, err := c.me(ctx)
	if err != nil {
		return fmt.Errorf("x: credential validation failed: %w", err)
	}
	if c.logger != nil {
		c.logger.Info("x: credentials validated", "username", me.Username)
	}
	return nil
}

// GetMentions returns tweets mentioning the bot, oldest data the API gives
// us first. sinceID narrows the lookup to tweets after that ID.
func (c *Client) GetMentions(ctx context.Context, sinceID string, limit int) ([]botpkg.Mention, error) {
	me, err := c.me(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("tweet.fields", "created_at,author_id")
	query.Set("expansions", "author_id")
	query.Set("user.fields", "username")
	query.Set("max_results", strconv.Itoa(clamp(limit, 5, 100)))
	if sinceID != "" {
		query.Set("since_id", sinceID)
	}

	var parsed mentionsResponse
	path := "/2/users/" + me.ID + "/mentions?" + query.Encode()
	if err := c.get(ctx, readKey, path, &parsed); err != nil {
		return nil, err
	}

	handles := make(map[string]string, len(parsed.Includes.Users))
	for _, u := range parsed.Includes.Users {
		handles[u.ID] = u.Username
	}

	mentions := make([]botpkg.Mention, 0, len(parsed.Data))
	for _, tweet := range parsed.Data {
		mentions = append(mentions, botpkg.Mention{
			ID:           tweet.ID,
			AuthorID:     tweet.AuthorID,
			AuthorHandle: handles[tweet.AuthorID],
			Text:         tweet.Text,
			CreatedAt:    tweet.CreatedAt,
		})
	}

	if c.logger != nil {
		c.logger.Debug("x: retrieved mentions", "count", len(mentions), "since_id", sinceID)
	}
	return mentions, nil
}

// ReplyToMention posts a reply tweet addressed to the mention's author.
func (c *Client) ReplyToMention(ctx context.Context, mention botpkg.Mention, text string) error {
	reply := text
	if mention.AuthorHandle != "" {
		reply = "@" + mention.AuthorHandle + " " + text
	}
	reply = social.TruncateReply(reply, replyCharLimit)

	payload := createTweetPayload{
		Text:  reply,
		Reply: &tweetReply{InReplyToTweetID: mention.ID},
	}

	if err := c.post(ctx, writeKey, "/2/tweets", payload, nil); err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Info("x: replied to mention", "tweet_id", mention.ID, "author", mention.AuthorHandle)
	}
	return nil
}

// GetDirectMessages returns recent inbound message-create events. Events
// sent by the bot itself are dropped.
func (c *Client) GetDirectMessages(ctx context.Context, limit int) ([]botpkg.DirectMessage, error) {
	me, err := c.me(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("dm_event.fields", "id,text,sender_id,created_at,event_type")
	query.Set("event_types", "MessageCreate")
	query.Set("max_results", strconv.Itoa(clamp(limit, 1, 100)))

	var parsed dmEventsResponse
	if err := c.get(ctx, readKey, "/2/dm_events?"+query.Encode(), &parsed); err != nil {
		return nil, err
	}

	dms := make([]botpkg.DirectMessage, 0, len(parsed.Data))
	for _, event := range parsed.Data {
		if event.EventType != "" && event.EventType != "MessageCreate" {
			continue
		}
		if event.SenderID == me.ID {
			continue
		}
		dms = append(dms, botpkg.DirectMessage{
			ID:        event.ID,
			SenderID:  event.SenderID,
			Text:      event.Text,
			CreatedAt: event.CreatedAt,
		})
	}

	if c.logger != nil {
		c.logger.Debug("x: retrieved direct messages", "count", len(dms))
	}
	return dms, nil
}

// SendDirectMessage delivers text to the one-to-one conversation with the
// recipient.
func (c *Client) SendDirectMessage(ctx context.Context, recipientID, text string) error {
	body := map[string]string{"text": social.TruncateReply(text, dmCharLimit)}
	path := "/2/dm_conversations/with/" + url.PathEscape(recipientID) + "/messages"

	if err := c.post(ctx, writeKey, path, body, nil); err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Info("x: sent direct message", "recipient", recipientID)
	}
	return nil
}

// me returns the authenticated user, fetching it once and caching.
func (c *Client) me(ctx context.Context) (*userObject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.self != nil {
		return c.self, nil
	}

	var parsed struct {
		Data userObject `json:"data"`
	}
	if err := c.get(ctx, readKey, "/2/users/me", &parsed); err != nil {
		return nil, err
	}
	if parsed.Data.ID == "" {
		return nil, errors.New("x: could not resolve authenticated user")
	}

	c.self = &parsed.Data
	return c.self, nil
}

func (c *Client) get(ctx context.Context, bucket, path string, out any) error {
	return c.execute(ctx, bucket, func() error {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		return c.send(req, out)
	})
}

func (c *Client) post(ctx context.Context, bucket, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("x: encode request: %w", err)
	}

	return c.execute(ctx, bucket, func() error {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.send(req, out)
	})
}

func (c *Client) send(req *retryablehttp.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("x: unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("x: decode response: %w", err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, bucket string, fn func() error) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, bucket); err != nil {
				return nil, err
			}
		}
		return nil, fn()
	})
	return err
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
