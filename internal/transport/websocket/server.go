package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/protocol"
)

// gameProtocol - the event state machine driven by this transport.
type gameProtocol interface {
	Connect(connID string, sender protocol.Sender)
	Dispatch(connID string, message *protocol.Message)
	Disconnect(connID string)
}

type Server struct {
	logger   *slog.Logger
	protocol gameProtocol
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, proto gameProtocol) *Server {
	return &Server{
		logger:   logger,
		protocol: proto,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				// the board UI is served from another origin
				return true
			},
		},
	}
}

// Start - starts the WebSocket server and blocks until the context is
// canceled or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS - upgrades the connection and runs its read/write pumps. Each
// connection gets a fresh ID; the session it backs lives exactly as long as
// the pumps do.
func (that *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(uuid.NewString(), conn, that.logger, that.protocol)

	that.protocol.Connect(client.id, client)

	go client.writePump()
	client.readPump()
}
