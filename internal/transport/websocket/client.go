package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024

	sendBufferSize = 64
)

var ErrSendBufferFull = errors.New("send buffer is full")

// client - one websocket connection. Outbound messages go through a buffered
// channel so the protocol handler never blocks on a slow reader.
type client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	logger   *slog.Logger
	protocol gameProtocol

	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, logger *slog.Logger, proto gameProtocol) *client {
	return &client{
		id:       id,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		logger:   logger.With("connID", id),
		protocol: proto,
	}
}

// Send - queues a message for delivery. Messages to a backlogged connection
// are dropped rather than blocking the room.
func (that *client) Send(message *protocol.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case that.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// readPump - reads inbound messages and dispatches them until the connection
// dies, then runs the disconnect path exactly once.
func (that *client) readPump() {
	defer that.close()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				that.logger.Error("unexpected close", "error", err)
			}
			return
		}

		var message protocol.Message
		if err = json.Unmarshal(data, &message); err != nil {
			that.logger.Debug("failed to unmarshal message", "error", err)
			continue
		}

		that.protocol.Dispatch(that.id, &message)
	}
}

// writePump - drains the send channel and keeps the connection alive with
// pings.
func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case data, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				that.logger.Debug("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		that.protocol.Disconnect(that.id)
		_ = that.conn.Close()
		close(that.send)
	})
}
