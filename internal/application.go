package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/config"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/matchmaking"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/registry"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/session"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/transport/rest"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/transport/websocket"
)

// RunApp - runs the application. All game state is process-scoped: rooms,
// sessions and the matchmaking queue start empty and die with the process.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	rooms := registry.New()
	sessions := session.New()
	queue := matchmaking.New()
	gameProtocol := protocol.New(logger, rooms, sessions, queue)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameProtocol)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
