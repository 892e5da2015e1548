package observer

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192 // subscription requests are tiny JSON objects
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return isAllowedOrigin(r.Header.Get("Origin"))
	},
}

// matchSubscriber is one spectator's live socket onto the arena: a
// subscription onto the Broadcaster feed for a single match (or, with an
// empty match ID, every match the server is running).
type matchSubscriber struct {
	conn         *websocket.Conn
	send         chan BroadcastEvent
	subscription *Subscription
	broadcaster  *Broadcaster
	matches      *MatchManager
	mu           sync.Mutex
}

// watchRequest is the JSON a spectator sends to pick which match and event
// types to follow. matchId is empty to watch every running match.
type watchRequest struct {
	Type       string   `json:"type"`       // "watch"
	MatchID    string   `json:"matchId"`    // empty string = all matches
	EventTypes []string `json:"eventTypes"` // empty = every event type
}

// handleWebSocket upgrades a spectator connection and starts its pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("spectator upgrade error: %v", err)
		return
	}

	client := &matchSubscriber{
		conn:        conn,
		send:        make(chan BroadcastEvent, 256),
		broadcaster: s.broadcaster,
		matches:     s.matches,
	}

	go client.writePump()
	go client.readPump()
}

// readPump reads watch requests from the spectator until the socket closes.
func (c *matchSubscriber) readPump() {
	defer func() {
		c.cleanup()
		if err := c.conn.Close(); err != nil {
			log.Printf("spectator close error: %v", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("SetReadDeadline error: %v", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("spectator read error: %v", err)
			}
			break
		}

		var req watchRequest
		if err := json.Unmarshal(message, &req); err != nil {
			log.Printf("failed to parse watch request: %v", err)
			continue
		}

		if req.Type == "watch" {
			c.handleWatch(req)
		}
	}
}

// writePump relays broadcast events and keepalive pings to the spectator.
func (c *matchSubscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			log.Printf("spectator close error: %v", err)
		}
	}()

	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("SetWriteDeadline error: %v", err)
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					log.Printf("WriteMessage error: %v", err)
				}
				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
				log.Printf("WriteJSON error: %v", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("SetWriteDeadline error: %v", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleWatch switches this spectator onto a new match/event-type filter
// and immediately pushes the match's current status, so a spectator that
// joins mid-match doesn't wait for the next periodic snapshot.
func (c *matchSubscriber) handleWatch(req watchRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subscription != nil {
		c.broadcaster.Unsubscribe(c.subscription)
	}

	eventTypes := make([]EventType, 0, len(req.EventTypes))
	for _, et := range req.EventTypes {
		eventTypes = append(eventTypes, EventType(et))
	}

	c.subscription = c.broadcaster.Subscribe(req.MatchID, eventTypes)
	go c.forwardEvents()
	debugLog("spectator watching match %q for events %v", req.MatchID, req.EventTypes)

	if req.MatchID != "" && c.matches != nil {
		if session, err := c.matches.GetSession(req.MatchID); err == nil {
			status := session.Status()
			select {
			case c.send <- BroadcastEvent{Type: EventTypeSnapshot, SessionID: req.MatchID, Data: map[string]interface{}{
				"cycle":        status.Cycle,
				"processCount": status.ProcessCount,
				"players":      status.Players,
			}}:
			default:
			}
		}
	}
}

// forwardEvents drains the broadcaster subscription onto the send channel,
// dropping events if the spectator's socket is too slow to keep up.
func (c *matchSubscriber) forwardEvents() {
	if c.subscription == nil {
		return
	}

	for event := range c.subscription.Channel {
		select {
		case c.send <- event:
		default:
		}
	}
}

// cleanup unsubscribes the spectator from the broadcaster on disconnect.
func (c *matchSubscriber) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subscription != nil {
		c.broadcaster.Unsubscribe(c.subscription)
		c.subscription = nil
	}
}
