package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/conclave-ai/conclave/pkg/events"
)

// writeSSE drains the event stream onto the response as one SSE record
// per event, flushing after each. Returns when the stream closes after
// its terminal event or when the client disconnects.
func writeSSE(c *echo.Context, stream *events.Stream) error {
	h := c.Response().Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	flusher, _ := http.ResponseWriter(c.Response()).(http.Flusher)
	done := c.Request().Context().Done()

	for {
		select {
		case e, ok := <-stream.Events():
			if !ok {
				return nil
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", data); err != nil {
				return nil
			}
			if flusher != nil {
				flusher.Flush()
			}
		case <-done:
			// Client went away; the session manager sees the same
			// context cancellation and winds the turn down.
			return nil
		}
	}
}
