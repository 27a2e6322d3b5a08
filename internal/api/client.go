// Package api implements the REST client for the click backend. Every call
// carries the session's bearer credential; a 401 response invalidates the
// session and is never handled any further by the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"click-client/internal/observability"
	"click-client/internal/session"
)

// ErrUnauthorized reports that the server rejected the credential. The
// session has already been invalidated by the time a caller sees it.
var ErrUnauthorized = errors.New("credential rejected")

// ErrNotReady reports that no identity or credential is established yet.
var ErrNotReady = errors.New("session not established")

// RequestError is a non-authorization REST failure. It is surfaced to the
// user once as a transient notice and never retried.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	// Status 0 means the request never produced a response.
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

// Client talks to the click REST API on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
}

// NewClient constructs a Client rooted at baseURL.
func NewClient(baseURL string, sess *session.Session) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		session: sess,
	}
}

// do issues one authenticated request. route is the path with parameters
// filled in; metricRoute is the parameter-free pattern used as the metric
// label. body is JSON-encoded when non-nil and the response is decoded into
// out when non-nil.
func (c *Client) do(ctx context.Context, method, route, metricRoute string, body any, out any) error {
	credential, ok := c.session.Credential()
	if !ok {
		return ErrNotReady
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.ObserveRESTRequest(method, metricRoute, 0, time.Since(start))
		return &RequestError{Message: err.Error()}
	}
	defer resp.Body.Close()
	observability.ObserveRESTRequest(method, metricRoute, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Invalidate()
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Message string `json:"Error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &RequestError{Status: resp.StatusCode, Message: payload.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
