package dashboard

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/zulandar/signalbox/internal/session"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// liveMessage is the envelope pushed over the WebSocket feed.
type liveMessage struct {
	Type  string         `json:"type"`
	State *session.State `json:"state,omitempty"`
}

// handleLive upgrades to a WebSocket and pushes a state snapshot after
// every (coalesced) session change. Client messages are ignored; reading
// only detects the close.
func handleLive(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade has already written an HTTP error.
			log.Printf("dashboard: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		updates, unsubscribe := sess.Subscribe()
		defer unsubscribe()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		send := func(msg liveMessage) bool {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteJSON(msg) == nil
		}

		snap := sess.Snapshot()
		if !send(liveMessage{Type: "state", State: &snap}) {
			return
		}

		ticker := time.NewTicker(flushInterval)
		heartbeat := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		defer heartbeat.Stop()

		dirty := false
		for {
			select {
			case <-ctx.Done():
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			case <-updates:
				dirty = true
			case <-heartbeat.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-ticker.C:
				if !dirty {
					continue
				}
				dirty = false
				snap := sess.Snapshot()
				if !send(liveMessage{Type: "state", State: &snap}) {
					return
				}
			}
		}
	}
}
