package eventapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"event-builder/internal/status"
	"event-builder/models"
	"event-builder/utils"
)

type Config struct {
	BaseURL string
	APIKey  string
	HMACKey string
	Timeout time.Duration
}

// Client talks to the external event-management API. It never retries;
// the organizer resubmits.
type Client struct {
	// baseURL is the API root, without trailing slash.
	baseURL string

	// apiKey is sent as a bearer token when set.
	apiKey string

	// hmacKey signs request bodies when set.
	hmacKey string

	breaker *utils.CircuitBreaker

	hc *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		hmacKey: cfg.HMACKey,
		breaker: utils.NewCircuitBreaker("event-api"),
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(body, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateEvent POSTs the payload to {baseURL}/events. Transport errors and
// non-2xx answers both wrap status.ErrSubmissionFailed. Only transport
// errors and 5xx answers count against the circuit breaker.
func (c *Client) CreateEvent(ctx context.Context, payload *models.EventPayload) (*models.CreatedEvent, error) {
	result, err := c.breaker.Execute(ctx, func() (any, error) {
		created, err := c.createEvent(ctx, payload)
		var se *StatusError
		if errors.As(err, &se) && se.Code < http.StatusInternalServerError {
			// a rejected payload is the caller's problem, the API itself is up
			return se, nil
		}
		return created, err
	})
	if err != nil {
		slog.Error("Event API call failed", "error", err, "breaker", c.breaker.State().String())
		return nil, fmt.Errorf("%w: %w", status.ErrSubmissionFailed, err)
	}
	if se, ok := result.(*StatusError); ok {
		slog.Info("Event API rejected payload", "code", se.Code)
		return nil, fmt.Errorf("%w: %w", status.ErrSubmissionFailed, se)
	}
	return result.(*models.CreatedEvent), nil
}

func (c *Client) createEvent(ctx context.Context, payload *models.EventPayload) (*models.CreatedEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("createEvent: json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("createEvent: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.hmacKey != "" {
		req.Header.Set("SignedHash", Sign(body, []byte(c.hmacKey)))
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("createEvent: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var reply models.CreatedEvent
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil && err != io.EOF {
		return nil, fmt.Errorf("createEvent: json.Decode: %w", err)
	}
	return &reply, nil
}

// StatusError is a non-2xx answer from the event API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("event api responded %d", e.Code)
	}
	return fmt.Sprintf("event api responded %d: %s", e.Code, e.Body)
}
