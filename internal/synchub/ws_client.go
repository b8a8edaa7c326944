package synchub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"peerhaven/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// WebSocketClient implements the Client interface over a staff websocket.
// Inbound frames are subscribe/unsubscribe requests; outbound frames are
// change events.
type WebSocketClient struct {
	StaffID string
	Conn    *websocket.Conn
	Hub     *ManagerService
	Send    chan models.Event

	closeOnce sync.Once
}

func (c *WebSocketClient) GetStaffID() string                  { return c.StaffID }
func (c *WebSocketClient) GetSendChannel() chan<- models.Event { return c.Send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close shuts the Send channel, which stops the write pump. Safe to call
// multiple times; the hub and the pumps may both try.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		var req models.SubscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			log.Printf("Error decoding JSON from staff client %s: %v", c.StaffID, err)
			continue
		}

		switch req.Op {
		case "subscribe":
			c.Hub.Subscribe(c, req.Channel)
		case "unsubscribe":
			c.Hub.Unsubscribe(c, req.Channel)
		default:
			log.Printf("Unknown op %q from staff client %s", req.Op, c.StaffID)
		}
	}
}

// writePump reads events from the Send channel and writes them to the socket.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			dataToWrite, err := json.Marshal(evt)
			if err != nil {
				log.Printf("Error encoding JSON for staff client %s: %v", c.StaffID, err)
				continue
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(dataToWrite)

			// Drain whatever else is queued into the same frame.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				nextEvt := <-c.Send
				extraData, _ := json.Marshal(nextEvt)
				w.Write([]byte{'\n'})
				w.Write(extraData)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
