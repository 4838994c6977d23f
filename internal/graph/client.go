// Package graph implements the outbound WhatsApp Cloud API client: payload
// construction, credential attachment, and structured classification of
// upstream failures.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option customises the behaviour of the Graph client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used to talk to the Graph API.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL sets the base Graph API URL. Useful for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithBodyLimit adjusts how many bytes are retained from the HTTP response body.
func WithBodyLimit(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxBodyBytes = limit
		}
	}
}

// Config carries the injected credentials and endpoint coordinates. Nothing
// in the client reads ambient configuration.
type Config struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
}

// Client issues authenticated calls against the per-sender message endpoint
// of the WhatsApp Cloud API. It is safe for concurrent use.
type Client struct {
	logger        zerolog.Logger
	accessToken   string
	phoneNumberID string
	baseURL       string
	apiVersion    string
	httpClient    HTTPClient
	now           func() time.Time
	maxBodyBytes  int64
}

// SendResult echoes the upstream response for a successful send.
type SendResult struct {
	MessageID  string
	HTTPStatus int
	Raw        string
	Timestamp  time.Time
}

// NewClient constructs a Graph API client.
func NewClient(cfg Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("graph client: access token is required")
	}
	if strings.TrimSpace(cfg.PhoneNumberID) == "" {
		return nil, errors.New("graph client: phone number id is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	client := &Client{
		logger:        logger,
		accessToken:   strings.TrimSpace(cfg.AccessToken),
		phoneNumberID: strings.TrimSpace(cfg.PhoneNumberID),
		baseURL:       "https://graph.facebook.com",
		apiVersion:    "v22.0",
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		now:           time.Now,
		maxBodyBytes:  16 * 1024,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		client.baseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	}
	if strings.TrimSpace(cfg.APIVersion) != "" {
		client.apiVersion = strings.TrimSpace(cfg.APIVersion)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type markReadPayload struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText posts a text reply to the recipient. A non-2xx response is
// decoded into a *SendError carrying the upstream classification; the client
// never retries on its own since every failure class requires an out-of-band
// remediation.
func (c *Client) SendText(ctx context.Context, to, body string) (*SendResult, error) {
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("graph client: recipient is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("graph client: reply body is required")
	}

	payload := textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	}

	status, raw, err := c.post(ctx, c.messagesEndpoint(), payload)
	if err != nil {
		return nil, transportError(err)
	}
	if status < 200 || status >= 300 {
		sendErr := decodeSendError(status, raw)
		c.logger.Warn().
			Int("http_status", status).
			Int("upstream_code", sendErr.Code).
			Str("classification", string(sendErr.Classification)).
			Str("fbtrace_id", sendErr.TraceID).
			Str("hint", sendErr.RemediationHint()).
			Msg("graph send rejected")
		return nil, sendErr
	}

	result := &SendResult{
		HTTPStatus: status,
		Raw:        raw,
		Timestamp:  c.now(),
	}
	var parsed sendResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && len(parsed.Messages) > 0 {
		result.MessageID = parsed.Messages[0].ID
	}

	c.logger.Debug().
		Str("reply_message_id", result.MessageID).
		Int("http_status", status).
		Msg("graph send succeeded")
	return result, nil
}

// MarkRead acknowledges an inbound message by id. This is best-effort: the
// caller treats a failure as non-fatal and proceeds with the reply send.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	if strings.TrimSpace(messageID) == "" {
		return errors.New("graph client: message id is required")
	}

	payload := markReadPayload{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	}

	status, raw, err := c.post(ctx, c.messagesEndpoint(), payload)
	if err != nil {
		return transportError(err)
	}
	if status < 200 || status >= 300 {
		return decodeSendError(status, raw)
	}
	return nil
}

func (c *Client) messagesEndpoint() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, url.PathEscape(c.phoneNumberID))
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("graph client: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("graph client: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("graph client: http do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := c.readBody(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) readBody(rc io.ReadCloser) (string, error) {
	if rc == nil {
		return "", nil
	}

	limit := c.maxBodyBytes
	if limit <= 0 {
		limit = 16 * 1024
	}

	reader := io.LimitReader(rc, limit)
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("graph client: read body: %w", err)
	}
	return string(data), nil
}
