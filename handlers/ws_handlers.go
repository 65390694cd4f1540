package handlers

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"videoforge/internal/broadcast"
)

// socketMessage is what connected clients send: an intent plus a job id.
type socketMessage struct {
	Type  string `json:"type"`
	JobID string `json:"job_id"`
}

// socketObserver adapts a websocket connection to the broadcast.Observer
// interface. Writes are serialized because the hub may notify from several
// executor goroutines at once.
type socketObserver struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (o *socketObserver) ID() string { return o.id }

func (o *socketObserver) Send(event broadcast.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conn.WriteJSON(event)
}

// WebsocketUpgrade gates the real-time route to actual upgrade requests.
func (h *ApplicationHandler) WebsocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// HandleSocket serves one observer connection: clients join and leave job
// rooms by message, the hub pushes progress events back. Missed events are
// not replayed; the status endpoint remains the fallback.
func (h *ApplicationHandler) HandleSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observer := &socketObserver{id: uuid.NewString(), conn: conn}
		h.Logger.WithField("observer_id", observer.id).Info("Observer connected")

		defer func() {
			h.Hub.LeaveAll(observer.id)
			conn.Close()
			h.Logger.WithField("observer_id", observer.id).Info("Observer disconnected")
		}()

		for {
			var msg socketMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.JobID == "" {
				continue
			}

			switch msg.Type {
			case "join-job":
				h.Hub.Join(msg.JobID, observer)
				h.Logger.WithFields(map[string]interface{}{
					"observer_id": observer.id,
					"job_id":      msg.JobID,
				}).Info("Observer joined job room")
			case "leave-job":
				h.Hub.Leave(msg.JobID, observer.id)
				h.Logger.WithFields(map[string]interface{}{
					"observer_id": observer.id,
					"job_id":      msg.JobID,
				}).Info("Observer left job room")
			}
		}
	})
}
