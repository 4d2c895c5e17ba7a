package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/boekwerk/boekwerk-cli/internal/api/dto"
	"github.com/boekwerk/boekwerk-cli/internal/errors"
	"github.com/boekwerk/boekwerk-cli/internal/models"
	"github.com/boekwerk/boekwerk-cli/internal/retry"
	"github.com/boekwerk/boekwerk-cli/internal/utils"
	"github.com/boekwerk/boekwerk-cli/pkg/version"
)

const (
	DefaultAPIURL  = "https://api.boekwerk.nl"
	DefaultTimeout = 2 * time.Minute
)

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	debug          bool
	retryClient    *retry.Client
	circuitBreaker *retry.CircuitBreaker
}

func NewClient(apiKey, baseURL string, debug bool) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL:        baseURL,
		apiKey:         apiKey,
		debug:          debug,
		retryClient:    retry.NewClient(retry.DefaultConfig(), debug),
		circuitBreaker: retry.NewCircuitBreaker(5, 30*time.Second),
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("boekwerk-cli/%s", version.GetVersion()))

	if c.debug {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		logger.Debug("API request",
			"method", method,
			"url", req.URL.String(),
			"authorization", utils.RedactAuthHeader(req.Header.Get("Authorization")),
			"has_body", body != nil,
		)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Wrap network errors
		return nil, &errors.NetworkError{
			Err:       err,
			Operation: fmt.Sprintf("%s %s", method, path),
			URL:       c.baseURL + path,
		}
	}

	if c.debug {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		logger.Debug("API response", "status", resp.Status)
	}

	return resp, nil
}

// SubmitBulkAction submits one bulk action and returns the operation snapshot
// the backend assigned, which may already be terminal for synchronous actions.
// Exactly one network call; no retry. Submission failures are a user-facing
// outcome, not something to paper over with automatic resubmission.
func (c *Client) SubmitBulkAction(ctx context.Context, request *dto.BulkActionRequest) (*models.BulkOperation, error) {
	resp, err := c.doRequest(ctx, "POST", EndpointBulkActions, request)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := ValidateResponseOKOrCreated(resp); err != nil {
		return nil, err
	}

	return decodeOperation(resp.Body, c.debug, "SubmitBulkAction")
}

// GetBulkOperation fetches the current snapshot of one bulk operation by ID.
// Used by the watcher on every poll tick, so it performs a single fetch with
// no retry; a transient failure is the watcher's to tolerate.
func (c *Client) GetBulkOperation(ctx context.Context, id string) (*models.BulkOperation, error) {
	if id == "" {
		return nil, fmt.Errorf("operation ID cannot be empty")
	}
	resp, err := c.doRequest(ctx, "GET", BulkActionDetailsURL(id), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := ValidateResponseOK(resp); err != nil {
		return nil, err
	}

	return decodeOperation(resp.Body, c.debug, "GetBulkOperation")
}

// ListClients fetches the accountant's client administrations, optionally
// filtered to yellow-flagged ones. Read-side call, retried with backoff
// behind the circuit breaker.
func (c *Client) ListClients(ctx context.Context, limit, offset int, onlyYellow bool) ([]models.ClientSummary, error) {
	resp, err := c.doRequestWithRetry(ctx, "GET", ClientsListURL(limit, offset, onlyYellow), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := ValidateResponseOK(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.debug {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		logger.Debug("ListClients response", "body", string(body))
	}

	// Try to decode as wrapped list response first
	var listResp dto.ClientListResponse
	if err := json.Unmarshal(body, &listResp); err == nil && listResp.Data != nil {
		return listResp.Data, nil
	}

	// Fall back to direct array decoding for backward compatibility
	var clients []models.ClientSummary
	if err := json.Unmarshal(body, &clients); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return clients, nil
}

// VerifyAuth checks the stored API key against the backend.
func (c *Client) VerifyAuth(ctx context.Context) (*models.UserInfo, error) {
	resp, err := c.doRequestWithRetry(ctx, "GET", EndpointAuthVerify, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := ValidateResponseOK(resp); err != nil {
		return nil, err
	}

	var userInfo models.UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &userInfo, nil
}

func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var resp *http.Response

	err := c.retryClient.DoWithRetry(ctx, func() error {
		return c.circuitBreaker.Call(func() error {
			var err error
			resp, err = c.doRequest(ctx, method, path, body)
			if err != nil {
				return err
			}

			// Check if response indicates a retryable error
			if resp.StatusCode >= 500 || resp.StatusCode == 429 || resp.StatusCode == 408 {
				defer func() { _ = resp.Body.Close() }()
				bodyBytes, _ := io.ReadAll(resp.Body)
				return errors.ParseAPIError(resp.StatusCode, bodyBytes)
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return resp, nil
}

// decodeOperation handles both the wrapped {data: {...}} response shape and
// a bare operation object, mirroring what different backend versions send.
func decodeOperation(r io.Reader, debug bool, op string) (*models.BulkOperation, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if debug {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		logger.Debug(op+" response", "body", string(body))
	}

	var singleResp dto.SingleOperationResponse
	if err := json.Unmarshal(body, &singleResp); err == nil && singleResp.Data != nil {
		return singleResp.Data, nil
	}

	var operation models.BulkOperation
	if err := json.Unmarshal(body, &operation); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &operation, nil
}
