// Package remote implements the remote validation contract: an HTTP client
// for a server-authoritative validator and an in-process evaluator that
// answers the same contract from stage requirements.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/archgraph/core/internal/models"
	"github.com/go-playground/validator/v10"
)

// DefaultTimeout bounds a single remote validation call.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

var (
	ErrInvalidRequest    = errors.New("invalid remote validation request")
	ErrRemoteStatus      = errors.New("remote validator returned an error status")
	ErrMalformedResponse = errors.New("malformed remote validation response")
	ErrUnavailable       = errors.New("remote validator unavailable")
	ErrUnknownStage      = errors.New("unknown stage")
)

// StatusError carries the HTTP status of a failed call. It matches
// ErrRemoteStatus with errors.Is.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote validator returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRemoteStatus
}

var contractValidate = validator.New()

// Client calls a remote validator over HTTP.
//
// Thread Safety: Client is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client posting to endpoint, the full URL of the
// validator (e.g. "https://api.example.com/v1/validate").
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithTimeout sets a custom timeout for validation requests. The HTTP client
// is copied first, so a shared client such as http.DefaultClient is left as
// it was.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	hc := *c.httpClient
	hc.Timeout = timeout
	c.httpClient = &hc
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// Validate posts the graph and decodes the authoritative result. Transport
// failures, non-2xx statuses and malformed payloads are returned as errors;
// they never mean "requirements not met".
func (c *Client) Validate(ctx context.Context, req models.RemoteValidationRequest) (*models.RemoteValidationResponse, error) {
	if err := contractValidate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Nodes == nil {
		req.Nodes = []models.Node{}
	}
	if req.Edges == nil {
		req.Edges = []models.Edge{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrMalformedResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	return DecodeResponse(data)
}

// DecodeResponse parses and checks a response payload.
func DecodeResponse(data []byte) (*models.RemoteValidationResponse, error) {
	var out models.RemoteValidationResponse
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := contractValidate.Struct(out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Summary.TotalRequirements != len(out.Requirements) {
		return nil, fmt.Errorf("%w: summary counts %d requirements, payload has %d",
			ErrMalformedResponse, out.Summary.TotalRequirements, len(out.Requirements))
	}
	return &out, nil
}
