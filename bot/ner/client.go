package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/flexbet/FlexCodeBot-Go/bot"
)

// DefaultEndpoint is the hosted token-classification model used when the
// configuration names no other endpoint.
const DefaultEndpoint = "https://api-inference.huggingface.co/models/dslim/bert-base-NER"

// ErrMissingAPIKey is returned when the client was built without an
// inference API key.
var ErrMissingAPIKey = errors.New("ner: missing api key")

// Client calls a Hugging Face token-classification endpoint to find
// organization entities in message text. Callers treat a failed call as
// "no entities", so a single bounded attempt per call is enough; the next
// poll cycle simply asks again.
type Client struct {
	httpClient *retryablehttp.Client
	apiURL     string
	apiKey     string
	logger     bot.Logger
}

type recognizeRequest struct {
	Inputs string `json:"inputs"`
}

// New returns an inference client. An empty endpoint selects
// DefaultEndpoint, a zero timeout selects 15 seconds.
func New(logger bot.Logger, apiKey string, endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient: retryablehttp.NewClient(),
		apiURL:     endpoint,
		apiKey:     apiKey,
		logger:     logger,
	}

	c.httpClient.RetryMax = 0
	c.httpClient.HTTPClient.Timeout = timeout
	c.httpClient.Logger = nil
	return c
}

// Recognize sends text to the inference endpoint and returns the raw
// entities. Blank text short-circuits without a network call.
func (c *Client) Recognize(ctx context.Context, text string) ([]bot.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if c.logger != nil {
		c.logger.Debug("ner: recognizing entities", "chars", len(text))
	}

	payload, err := json.Marshal(recognizeRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("ner: encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ner: unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var entities []bot.Entity
	if err := json.Unmarshal(body, &entities); err != nil {
		return nil, fmt.Errorf("ner: decode entities: %w", err)
	}

	return entities, nil
}
