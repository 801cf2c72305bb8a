package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/platform"
)

// DefaultBaseURL is the hosted conversion API.
const DefaultBaseURL = "https://convertbetcodes.com/api"

const (
	cachePrefix = "convert:"
	cacheTTL    = 24 * time.Hour
)

// Booking codes are plain alphanumeric tokens.
var codeFormat = regexp.MustCompile(`^[A-Z0-9]{4,15}$`)

// RedisClient is the subset of redis operations the converter uses.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Client converts booking codes between platforms through the
// convertbetcodes API. In simulate mode (explicit flag or missing API key)
// it fabricates converted codes locally, which keeps the rest of the
// pipeline exercisable without spending API quota. Successful real
// conversions are cached in redis when a client is present.
type Client struct {
	httpClient *retryablehttp.Client
	breaker    *gobreaker.CircuitBreaker
	reg        *platform.Registry
	redis      RedisClient
	logger     bot.Logger
	baseURL    string
	apiKey     string
	simulate   bool
	maxRetries int
	minBackoff time.Duration
	maxBackoff time.Duration
}

type conversionPayload struct {
	Code         string `json:"code"`
	FromPlatform string `json:"from_platform"`
	ToPlatform   string `json:"to_platform"`
}

type conversionResponse struct {
	Success       bool   `json:"success"`
	ConvertedCode string `json:"converted_code"`
	Message       string `json:"message"`
	Error         string `json:"error"`
}

// New returns a converter client. An empty baseURL selects DefaultBaseURL;
// an empty apiKey forces simulate mode.
func New(logger bot.Logger, reg *platform.Registry, redisClient RedisClient, apiKey, baseURL string, simulate bool) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		httpClient: retryablehttp.NewClient(),
		reg:        reg,
		redis:      redisClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		simulate:   simulate || apiKey == "",
		maxRetries: 3,
		minBackoff: 1 * time.Second,
		maxBackoff: 5 * time.Second,
	}

	c.httpClient.RetryMax = c.maxRetries
	c.httpClient.RetryWaitMin = c.minBackoff
	c.httpClient.RetryWaitMax = c.maxBackoff
	c.httpClient.HTTPClient.Timeout = 30 * time.Second
	c.httpClient.Logger = nil

	settings := gobreaker.Settings{
		Name:        "convertbet-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker(settings)

	return c
}

// Simulated reports whether the client fabricates conversions locally.
func (c *Client) Simulated() bool {
	return c.simulate
}

// Convert translates one booking code between two platforms. Source and
// Target accept any alias the registry knows. The returned error is always
// a *ConversionError whose UserMessage is safe to echo back to the author.
func (c *Client) Convert(ctx context.Context, req bot.ConversionRequest) (*bot.ConversionResult, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !codeFormat.MatchString(code) {
		return nil, NewInvalidCodeError(req.Code)
	}

	srcKey, err := c.convertibleKey(req.Source)
	if err != nil {
		return nil, NewUnsupportedError(code, req.Source, req.Target, err)
	}
	tgtKey, err := c.convertibleKey(req.Target)
	if err != nil {
		return nil, NewUnsupportedError(code, req.Source, req.Target, err)
	}

	if c.simulate {
		return c.simulateConversion(code, srcKey, tgtKey), nil
	}

	key := cachePrefix + srcKey + ":" + tgtKey + ":" + code
	if cached := c.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	result, err := c.requestConversion(ctx, code, srcKey, tgtKey)
	if err != nil {
		return nil, err
	}

	c.storeCache(ctx, key, result)
	return result, nil
}

// convertibleKey resolves any platform alias to its canonical key and
// requires the platform to participate in conversions.
func (c *Client) convertibleKey(name string) (string, error) {
	key, ok := c.reg.Resolve(name)
	if !ok {
		return "", platform.NewUnknownPlatformError("convert", name)
	}
	if !c.reg.IsConvertible(key) {
		return "", platform.NewNotConvertibleError("convert", name)
	}
	return key, nil
}

func (c *Client) simulateConversion(code, srcKey, tgtKey string) *bot.ConversionResult {
	if c.logger != nil {
		c.logger.Debug("convert: simulating conversion", "code", code, "from", srcKey, "to", tgtKey)
	}

	// Mirror of the service's code shape: CONV plus the code's tail.
	tail := code
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}

	return &bot.ConversionResult{
		OriginalCode:  code,
		ConvertedCode: "CONV" + tail,
		Source:        srcKey,
		Target:        tgtKey,
		Message:       "Code converted successfully (simulated)",
		Simulated:     true,
	}
}

func (c *Client) requestConversion(ctx context.Context, code, srcKey, tgtKey string) (*bot.ConversionResult, error) {
	if c.logger != nil {
		c.logger.Debug("convert: requesting conversion", "code", code, "from", srcKey, "to", tgtKey)
	}

	payload, err := json.Marshal(conversionPayload{
		Code:         code,
		FromPlatform: srcKey,
		ToPlatform:   tgtKey,
	})
	if err != nil {
		return nil, &ConversionError{Code: code, Source: srcKey, Target: tgtKey, Err: err}
	}

	var parsed conversionResponse
	err = c.execute(ctx, func() error {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", payload)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("convert: unexpected status code %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("convert: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, &ConversionError{Code: code, Source: srcKey, Target: tgtKey, Err: err}
	}

	if !parsed.Success {
		if c.logger != nil {
			c.logger.Warn("convert: service rejected conversion", "code", code, "error", parsed.Error)
		}
		return nil, NewFailedError(code, srcKey, tgtKey, parsed.Error)
	}

	if c.logger != nil {
		c.logger.Info("convert: converted code", "code", code, "from", srcKey, "to", tgtKey)
	}

	return &bot.ConversionResult{
		OriginalCode:  code,
		ConvertedCode: parsed.ConvertedCode,
		Source:        srcKey,
		Target:        tgtKey,
		Message:       parsed.Message,
	}, nil
}

// fromCache returns a previously converted result, or nil on miss or any
// redis trouble. Cache failures never fail a conversion.
func (c *Client) fromCache(ctx context.Context, key string) *bot.ConversionResult {
	if c.redis == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("convert: cache read failed", "key", key, "err", err)
		}
		return nil
	}

	var result bot.ConversionResult
	if err := json.Unmarshal(data, &result); err != nil {
		if c.logger != nil {
			c.logger.Warn("convert: cache entry corrupt", "key", key, "err", err)
		}
		return nil
	}

	if c.logger != nil {
		c.logger.Debug("convert: cache hit", "key", key)
	}
	return &result
}

func (c *Client) storeCache(ctx context.Context, key string, result *bot.ConversionResult) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, cacheTTL).Err(); err != nil && c.logger != nil {
		c.logger.Warn("convert: cache write failed", "key", key, "err", err)
	}
}

func (c *Client) execute(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.withRetry(ctx, fn)
	})
	return err
}

func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == c.maxRetries {
			break
		}

		wait := c.httpClient.Backoff(c.minBackoff, c.maxBackoff, attempt, nil)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	if lastErr == nil {
		lastErr = errors.New("convert: retry failed")
	}
	return lastErr
}
