package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/crewops/opsync/internal/domain"
)

// Settings is the process-wide, runtime-mutable remote-backend
// configuration. Both fields must be present for the backend to count as
// configured; they are resolved once per call so an operator can attach or
// detach a backend while the service runs.
type Settings struct {
	mu         sync.RWMutex
	endpoint   string
	credential string
	bucket     string
}

// NewSettings seeds the runtime settings, typically from the config file.
func NewSettings(endpoint, credential, bucket string) *Settings {
	return &Settings{
		endpoint:   strings.TrimRight(endpoint, "/"),
		credential: credential,
		bucket:     bucket,
	}
}

// Set replaces the endpoint and credential. Empty values detach the
// backend and return the services to local-only operation.
func (s *Settings) Set(endpoint, credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = strings.TrimRight(endpoint, "/")
	s.credential = credential
}

// Snapshot returns the current endpoint and credential. ok is false when
// either is missing.
func (s *Settings) Snapshot() (endpoint, credential string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoint, s.credential, s.endpoint != "" && s.credential != ""
}

// Configured reports whether both endpoint and credential are present.
func (s *Settings) Configured() bool {
	_, _, ok := s.Snapshot()
	return ok
}

// Bucket returns the object-storage bucket name.
func (s *Settings) Bucket() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bucket
}

// GatewayError is a remote-gateway failure carrying its classification.
type GatewayError struct {
	Status int
	Body   string
	Class  Classification
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("remote gateway error (%s, status %d): %s", e.Class.Kind, e.Status, e.Body)
}

// AsGatewayError unwraps err into a GatewayError when possible.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsNetworkError reports whether err is a transport-level failure (as
// opposed to an HTTP response the gateway produced).
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := AsGatewayError(err); ok {
		return false
	}
	return !errors.Is(err, domain.ErrNotConfigured) &&
		!errors.Is(err, domain.ErrRelationMissing) &&
		!errors.Is(err, domain.ErrNotFound)
}

// Client speaks the PostgREST wire protocol against whatever backend the
// runtime settings point at. It holds no per-entity knowledge; the Mirror
// layers that on top.
type Client struct {
	settings *Settings
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a gateway client. A zero timeout falls back to 15s.
func NewClient(settings *Settings, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		settings: settings,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Settings exposes the runtime settings, e.g. for the settings API.
func (c *Client) Settings() *Settings {
	return c.settings
}

// preferUpsert asks PostgREST to merge on conflict and echo the rows back.
const preferUpsert = "resolution=merge-duplicates,return=representation"

// preferReturn asks for the affected rows on PATCH/DELETE.
const preferReturn = "return=representation"

// do issues one request against the REST endpoint. It resolves the
// runtime settings per call and refuses with ErrNotConfigured when the
// backend is detached. Failures with an HTTP response are classified;
// relation-missing failures surface as ErrRelationMissing so callers can
// fall back without inspecting the classification themselves.
func (c *Client) do(ctx context.Context, method, table string, query url.Values, prefer string, payload interface{}) ([]byte, error) {
	endpoint, credential, ok := c.settings.Snapshot()
	if !ok {
		return nil, domain.ErrNotConfigured
	}

	u := fmt.Sprintf("%s/rest/v1/%s", endpoint, table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("apikey", credential)
	req.Header.Set("Authorization", "Bearer "+credential)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote response: %w", err)
	}

	if resp.StatusCode >= 400 {
		class := Classify(resp.StatusCode, string(respBody))

		c.logger.Warn("Remote gateway rejected request",
			slog.String("method", method),
			slog.String("table", table),
			slog.Int("status", resp.StatusCode),
			slog.String("kind", class.Kind.String()),
		)

		if class.Kind == KindRelationMissing {
			return nil, fmt.Errorf("%w: %s", domain.ErrRelationMissing, table)
		}
		return nil, &GatewayError{Status: resp.StatusCode, Body: string(respBody), Class: class}
	}

	return respBody, nil
}

// Upsert posts rows with merge-on-id semantics and decodes the echoed
// representation into out when out is non-nil.
func (c *Client) Upsert(ctx context.Context, table string, rows interface{}, out interface{}) error {
	query := url.Values{}
	query.Set("on_conflict", "id")

	body, err := c.do(ctx, http.MethodPost, table, query, preferUpsert, rows)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode upsert representation: %w", err)
		}
	}
	return nil
}

// List fetches rows with select=* plus the given filters into out.
func (c *Client) List(ctx context.Context, table string, filters url.Values, out interface{}) error {
	query := url.Values{}
	query.Set("select", "*")
	for key, values := range filters {
		for _, v := range values {
			query.Add(key, v)
		}
	}

	body, err := c.do(ctx, http.MethodGet, table, query, "", nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode list response: %w", err)
	}
	return nil
}

// Patch updates the row with the given id and decodes the representation.
func (c *Client) Patch(ctx context.Context, table, id string, patch interface{}, out interface{}) error {
	query := url.Values{}
	query.Set("id", "eq."+id)

	body, err := c.do(ctx, http.MethodPatch, table, query, preferReturn, patch)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode patch representation: %w", err)
		}
	}
	return nil
}

// Delete removes the row with the given id.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	query := url.Values{}
	query.Set("id", "eq."+id)

	_, err := c.do(ctx, http.MethodDelete, table, query, preferReturn, nil)
	return err
}
