package calls

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Backoff is the reconnect strategy for dropped subscriptions: exponential
// growth from Min to Max with random jitter.
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

// DefaultBackoff reconnects after 1s, doubling up to 30s.
func DefaultBackoff() Backoff {
	return Backoff{Min: time.Second, Max: 30 * time.Second}
}

// Next returns the delay for the given attempt (0-based) with up to 25%
// jitter added.
func (b Backoff) Next(attempt int) time.Duration {
	d := b.Min << attempt
	if d <= 0 || d > b.Max {
		d = b.Max
	}
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}

// Client is the caller-side facade over the bridge endpoint: agenda screens
// use CallPatient, monitor displays use SubscribeToCalls.
type Client struct {
	baseURL string
	httpc   *http.Client
	backoff Backoff
	logger  zerolog.Logger
}

// NewClient creates a Client for the bridge endpoint at baseURL
// (e.g. "http://localhost:8000/api/v1/calls").
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		backoff: DefaultBackoff(),
		logger:  logger,
	}
}

// CallPatient POSTs the call request. Network failure is swallowed and
// logged: the agenda UI has already given optimistic local feedback, and
// at-most-once delivery is the accepted semantic.
func (c *Client) CallPatient(ctx context.Context, req CallRequest) {
	req.Normalize()
	body, err := json.Marshal(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("call request encode failed")
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		c.logger.Error().Err(err).Msg("call request build failed")
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Msg("call request failed, monitors may not receive it")
		return
	}
	resp.Body.Close()
}

// SubscribeToCalls opens a streaming subscription for monitorID and invokes
// onCall for every received call frame. The connection is re-established with
// backoff until the returned cancel function is invoked or ctx is done.
func (c *Client) SubscribeToCalls(ctx context.Context, monitorID string, onCall func(CallEvent)) func() {
	if monitorID == "" {
		monitorID = GeneralMonitor
	}
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		attempt := 0
		for {
			if subCtx.Err() != nil {
				return
			}
			if err := c.stream(subCtx, monitorID, onCall); err != nil && subCtx.Err() == nil {
				c.logger.Warn().
					Err(err).
					Str("monitor_id", monitorID).
					Msg("call stream dropped, reconnecting")
			}
			if subCtx.Err() != nil {
				return
			}

			delay := c.backoff.Next(attempt)
			attempt++
			select {
			case <-subCtx.Done():
				return
			case <-time.After(delay):
			}
		}
	}()

	return cancel
}

// stream runs one subscription connection until it drops or ctx is done.
func (c *Client) stream(ctx context.Context, monitorID string, onCall func(CallEvent)) error {
	u := c.baseURL + "?monitorId=" + url.QueryEscape(monitorID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var eventName string
	var data []byte
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			// Blank line terminates a frame.
			if eventName == "call" && len(data) > 0 {
				var event CallEvent
				if err := json.Unmarshal(data, &event); err != nil {
					c.logger.Warn().Err(err).Msg("malformed call frame, dropping")
				} else {
					onCall(event)
				}
			}
			eventName = ""
			data = nil
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:"))...)
		case strings.HasPrefix(line, ":"):
			// Comment / keep-alive frame.
		}
	}
	return scanner.Err()
}

// OnLocalCallReceived attaches onCall to the same-device fallback channel.
// It mirrors SubscribeToCalls' contract: returns a cancel function, never
// fails the subscription on malformed payloads.
func (c *Client) OnLocalCallReceived(local *LocalChannel, onCall func(CallEvent)) (func(), error) {
	return local.Subscribe(onCall)
}
