package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/session"
)

// Feed timing. State changes arrive at tick rate; they are coalesced and
// pushed at most once per flushInterval.
var (
	flushInterval     = 250 * time.Millisecond
	heartbeatInterval = 15 * time.Second
)

// handleSSE streams a "state" event whenever the session changes.
func handleSSE(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		updates, unsubscribe := sess.Subscribe()
		defer unsubscribe()

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		writeSSE(c.Writer, "state", sess.Snapshot())
		c.Writer.Flush()

		ctx := c.Request.Context()
		ticker := time.NewTicker(flushInterval)
		heartbeat := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		defer heartbeat.Stop()

		dirty := false
		for {
			select {
			case <-ctx.Done():
				return
			case <-updates:
				dirty = true
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				if !dirty {
					continue
				}
				dirty = false
				writeSSE(c.Writer, "state", sess.Snapshot())
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
