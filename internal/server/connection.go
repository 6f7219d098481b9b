package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/windfall/windfall/internal/blackjack"
	"github.com/windfall/windfall/internal/session"
	"github.com/windfall/windfall/internal/tables"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// Connection is one player's WebSocket at a table
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	session   *session.Session
	table     tables.TableConfig
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (s *Server) handleTableSocket(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	cfg := tableFrom(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	c := newConnection(conn, s, sess, cfg)
	s.register(c)
	c.sendState()
	c.Start()

	// Connection cleanup is handled by the connection itself
	go func() {
		<-c.ctx.Done()
		s.unregister(c)
	}()
}

func newConnection(conn *websocket.Conn, s *Server, sess *session.Session, cfg tables.TableConfig) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 64),
		server:  s,
		session: sess,
		table:   cfg,
		logger:  s.logger.WithPrefix("conn").With("table", cfg.ID, "user", sess.User.Email),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// handleMessage applies one client message to the round and answers with
// the new state, preceded by an error when the action was refused.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	action, ok := msg.Type.action()
	if !ok {
		c.sendError(ErrorData{Code: "unknown_message_type", Message: "Unknown message type: " + msg.Type.String()})
		return
	}

	amount := 0
	if msg.Type == MessageTypeBet {
		var data BetData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(ErrorData{Code: "invalid_message", Message: "Failed to parse bet data"})
			return
		}
		amount = data.Amount
	}

	view, err := c.server.play(c.session, c.table, action, amount)
	if err != nil {
		c.sendError(errorData(err))
	}
	_ = c.SendMessage(c.stateMessage(view)) // Ignore send errors
}

func (c *Connection) sendState() {
	view, err := c.server.play(c.session, c.table, actionState, 0)
	if err != nil {
		c.sendError(errorData(err))
		return
	}
	_ = c.SendMessage(c.stateMessage(view)) // Ignore send errors
}

func (c *Connection) stateMessage(view blackjack.View) *Message {
	msg, _ := NewMessage(MessageTypeState, StateData{Table: c.table.ID, View: view}, c.server.clock.Now())
	return msg
}

// sendError sends an error message to the client
func (c *Connection) sendError(data ErrorData) {
	msg, err := NewMessage(MessageTypeError, data, c.server.clock.Now())
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	_ = c.SendMessage(msg) // Ignore send errors during error handling
}
