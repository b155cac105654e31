// Package remote is the HTTP client for the exam authority. It moves bytes
// and classifies transport and status failures; interpreting successful
// bodies is left to the callers that know which shape to expect.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/response"
	"github.com/stemsi/exstem-certify/internal/validator"
)

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 32 << 20

// TokenSource supplies the bearer token attached to each request.
type TokenSource interface {
	Token() string
}

// RawResponse is an undecoded 2xx response.
type RawResponse struct {
	Status      int
	ContentType string
	Body        []byte
	RequestID   string
}

// Client talks to the remote exam authority.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     zerolog.Logger
}

// NewClient creates a Client. timeout bounds every request end to end.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log.With().Str("component", "remote_client").Logger(),
	}
}

// do sends one request and returns the raw 2xx response. Transport errors,
// including timeouts, become NetworkFailure; non-2xx statuses are classified
// by response.FromStatus.
func (c *Client) do(ctx context.Context, method, path string, in any, accept string) (*RawResponse, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}

	reqID := response.NewRequestID()
	req.Header.Set(response.HeaderRequestID, reqID)
	req.Header.Set("Accept", accept)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	log := c.log.With().Str("method", method).Str("path", path).Str("request_id", reqID).Logger()
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("Request failed")
		return nil, response.Wrap(response.KindNetworkFailure, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		log.Warn().Err(err).Int("status", resp.StatusCode).Msg("Reading response failed")
		return nil, response.Wrap(response.KindNetworkFailure, "", err)
	}
	if len(raw) > MaxBodyBytes {
		return nil, response.New(response.KindServerFault, "Response body exceeds size limit.")
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(raw)).
		Dur("elapsed", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, response.FromStatus(resp.StatusCode, raw)
	}

	return &RawResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        raw,
		RequestID:   reqID,
	}, nil
}

// doJSON sends a request and decodes a JSON body into out, validating it
// against its struct tags. A body that does not match becomes
// ValidationFailed.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	raw, err := c.do(ctx, method, path, in, "application/json")
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw.Body, out); err != nil {
		return response.Wrap(response.KindValidationFailed, "", err)
	}
	if fields := validator.Struct(out); fields != nil {
		return &response.Error{
			Kind:    response.KindValidationFailed,
			Message: response.GetMessage(response.KindValidationFailed),
			Fields:  fields,
		}
	}
	return nil
}
