package calls

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// sinkBuffer is the per-subscriber event buffer. A monitor that falls this
// far behind is treated as disconnected.
const sinkBuffer = 16

var errSinkFull = errors.New("subscriber buffer full")

// streamSink bridges the broadcaster to one SSE connection through a buffered
// channel so a slow consumer never blocks the fan-out.
type streamSink struct {
	ch chan CallEvent
}

func newStreamSink() *streamSink {
	return &streamSink{ch: make(chan CallEvent, sinkBuffer)}
}

// Send enqueues the event without blocking. A full buffer counts as a write
// failure so the broadcaster drops the subscriber.
func (s *streamSink) Send(event CallEvent) error {
	select {
	case s.ch <- event:
		return nil
	default:
		return errSinkFull
	}
}

// Handler exposes the bridge endpoint: an SSE subscription stream for
// monitors and a POST dispatch for callers. The endpoint is deliberately
// unauthenticated; it is an internal signaling channel, not a data API.
type Handler struct {
	registry    *Registry
	broadcaster *Broadcaster
	local       *LocalChannel
	logger      zerolog.Logger
}

// NewHandler creates a Handler. local may be nil when no same-device fallback
// channel is configured.
func NewHandler(registry *Registry, broadcaster *Broadcaster, local *LocalChannel, logger zerolog.Logger) *Handler {
	return &Handler{registry: registry, broadcaster: broadcaster, local: local, logger: logger}
}

// RegisterRoutes registers the bridge endpoint on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/calls", h.HandleSubscribe)
	g.POST("/calls", h.HandleCall)
}

// HandleSubscribe opens a push subscription for the monitor named by the
// monitorId query parameter (GENERAL when omitted). Clients that do not
// accept text/event-stream get a JSON probe response instead of a stream so
// casual inspection does not surface a bare 404.
func (h *Handler) HandleSubscribe(c echo.Context) error {
	if !strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "text/event-stream") {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "patient call stream; subscribe with Accept: text/event-stream",
		})
	}

	monitorID := c.QueryParam("monitorId")

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	// Tells nginx-style reverse proxies not to buffer the stream.
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	// Initial comment frame defeats buffering intermediaries.
	if _, err := fmt.Fprint(res, ": connected\n\n"); err != nil {
		return nil
	}
	res.Flush()

	sink := newStreamSink()
	sub := h.registry.Add(monitorID, sink)
	defer h.registry.Remove(sub.ConnectionID)

	h.logger.Info().
		Str("connection_id", sub.ConnectionID).
		Str("monitor_id", sub.MonitorID).
		Msg("monitor subscribed")

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info().
				Str("connection_id", sub.ConnectionID).
				Str("monitor_id", sub.MonitorID).
				Msg("monitor disconnected")
			return nil
		case event := <-sink.ch:
			if err := writeFrame(res, event); err != nil {
				h.logger.Warn().
					Err(err).
					Str("connection_id", sub.ConnectionID).
					Msg("stream write failed")
				return nil
			}
			res.Flush()
		}
	}
}

// writeFrame serializes one event in text/event-stream framing:
// a named "call" event followed by a JSON data line and a blank line.
func writeFrame(w *echo.Response, event CallEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: call\ndata: %s\n\n", data)
	return err
}

// HandleCall accepts a call request, dispatches it to matching subscribers
// and mirrors it onto the local fallback channel, then returns the event
// (with its assigned timestamp) for caller-side confirmation.
func (h *Handler) HandleCall(c echo.Context) error {
	var req CallRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	req.Normalize()

	event, _ := h.broadcaster.Dispatch(req)

	if h.local != nil {
		if err := h.local.Publish(event); err != nil {
			h.logger.Warn().Err(err).Msg("local fallback publish failed")
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    event,
	})
}
