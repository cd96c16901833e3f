package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/adanyl0v/go-tasks/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type taskEventMessage struct {
	Type       events.Type      `json:"type"`
	TaskID     int64            `json:"task_id,omitempty"`
	Task       *getTaskResponse `json:"task,omitempty"`
	Affected   int64            `json:"affected,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func newTaskEventMessage(e events.Event) taskEventMessage {
	msg := taskEventMessage{
		Type:       e.Type,
		TaskID:     e.TaskID,
		Affected:   e.Affected,
		OccurredAt: e.OccurredAt,
	}
	if e.Task != nil {
		task := newGetTaskResponse(e.Task)
		msg.Task = &task
	}
	return msg
}

// HandleTaskEvents streams the caller's task mutations over a websocket
// until either side closes the connection.
func (h *handlerImpl) HandleTaskEvents(c *gin.Context) {
	userID := getUserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Debug().
			Err(err).
			Msg("failed to upgrade connection")
		return
	}

	feed, cancel := h.feed.Subscribe(userID)
	h.logger.Info().
		Str("user_id", userID).
		Msg("subscribed to task events")

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, feed, done)

	cancel()
	_ = conn.Close()
	h.logger.Info().
		Str("user_id", userID).
		Msg("unsubscribed from task events")
}

// readPump discards client messages and keeps the read deadline fresh on
// pongs. It closes done once the connection fails.
func (h *handlerImpl) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().
					Err(err).
					Msg("task events connection closed")
			}
			return
		}
	}
}

func (h *handlerImpl) writePump(conn *websocket.Conn, feed <-chan events.Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-feed:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			err := conn.WriteJSON(newTaskEventMessage(e))
			if err != nil {
				h.logger.Debug().
					Err(err).
					Msg("failed to write task event")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
