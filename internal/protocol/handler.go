package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/entity"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/matchmaking"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/registry"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/session"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/tictactoe"
)

const msgRoomNotFound = "Room not found"

// Sender - the outbound half of a connection. Send must not block; the
// transport queues the message and delivers it asynchronously.
type Sender interface {
	Send(message *Message) error
}

// Handler - the game protocol state machine. Every inbound event is looked
// up against the session directory, validated against the room under the
// room's own lock, applied, and broadcast to the room's connections.
type Handler struct {
	logger   *slog.Logger
	rooms    *registry.Registry
	sessions *session.Directory
	queue    *matchmaking.Queue

	handlers map[string]func(connID string, message *Message) error

	connsMu sync.RWMutex
	conns   map[string]Sender
}

func New(logger *slog.Logger, rooms *registry.Registry, sessions *session.Directory, queue *matchmaking.Queue) *Handler {
	handler := &Handler{
		logger:   logger,
		rooms:    rooms,
		sessions: sessions,
		queue:    queue,

		handlers: make(map[string]func(string, *Message) error),
		conns:    make(map[string]Sender),
	}

	handler.handlers[ActionCreateRoom] = handler.handleCreateRoom
	handler.handlers[ActionJoinRoom] = handler.handleJoinRoom
	handler.handlers[ActionQuickMatch] = handler.handleQuickMatch
	handler.handlers[ActionMakeMove] = handler.handleMakeMove
	handler.handlers[ActionResetGame] = handler.handleResetGame
	handler.handlers[ActionLeaveRoom] = handler.handleLeaveRoom

	return handler
}

// Connect - registers a new connection and creates its session.
func (that *Handler) Connect(connID string, sender Sender) {
	that.connsMu.Lock()
	that.conns[connID] = sender
	that.connsMu.Unlock()

	that.sessions.Create(connID)

	that.logger.Info("connection established", "connID", connID)
}

// Dispatch - routes one inbound message to its action handler. Unknown
// actions are dropped.
func (that *Handler) Dispatch(connID string, message *Message) {
	log := that.logger.With("method", "Dispatch")

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Debug("unknown action", "action", message.Action)
		return
	}

	if err := handler(connID, message); err != nil {
		log.Error("error processing message", "action", message.Action, "error", err)
	}
}

// Disconnect - runs the seat-offline handling for a closed connection and
// destroys its session. Safe to call more than once; only the first call
// does anything.
func (that *Handler) Disconnect(connID string) {
	log := that.logger.With("method", "Disconnect")

	that.connsMu.Lock()
	if _, ok := that.conns[connID]; !ok {
		that.connsMu.Unlock()
		return
	}
	delete(that.conns, connID)
	that.connsMu.Unlock()

	that.queue.Remove(connID)

	sess, err := that.sessions.Lookup(connID)
	if err != nil {
		return
	}

	if sess.InRoom() {
		that.vacateOnDisconnect(sess)
	}

	that.sessions.Delete(connID)

	log.Info("connection closed", "connID", connID)
}

func (that *Handler) handleCreateRoom(connID string, message *Message) error {
	log := that.logger.With("method", "handleCreateRoom")

	var payload CreateRoomPayload
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	sess, err := that.sessions.Lookup(connID)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	// a session holds at most one room at a time
	if sess.InRoom() {
		that.leaveRoom(sess)
	}

	that.queue.Remove(connID)

	room := that.rooms.CreateRoom()

	room.Mu.Lock()
	seat := room.Seat(entity.PlayerX)
	seat.ConnID = connID
	seat.Name = payload.PlayerName
	seat.Online = true
	room.Mu.Unlock()

	if err := that.sessions.Bind(connID, room.Code, entity.PlayerX, payload.PlayerName); err != nil {
		that.rooms.DeleteRoom(room.Code)
		return fmt.Errorf("failed to bind session: %w", err)
	}

	that.send(connID, ActionRoomCreated, RoomCreatedPayload{RoomCode: room.Code})

	log.Info("room created", "roomCode", room.Code)

	return nil
}

func (that *Handler) handleJoinRoom(connID string, message *Message) error {
	log := that.logger.With("method", "handleJoinRoom")

	var payload JoinRoomPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.RoomCode == "" {
		return nil
	}

	sess, err := that.sessions.Lookup(connID)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if sess.InRoom() && sess.RoomCode != payload.RoomCode {
		that.leaveRoom(sess)
	}

	room, err := that.rooms.GetRoom(payload.RoomCode)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		that.sendError(connID, msgRoomNotFound)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	that.queue.Remove(connID)

	room.Mu.Lock()

	if _, ok := room.SeatByConn(connID); ok {
		// already seated here: resend the state, nothing to change
		state := room.Snapshot()
		room.Mu.Unlock()

		that.send(connID, ActionGameState, GameStatePayload{RoomCode: room.Code, Room: state})

		return nil
	}

	mark, free := room.FreeSeat()
	if !free {
		room.Spectators[connID] = struct{}{}
		room.Mu.Unlock()

		if err = that.sessions.Bind(connID, room.Code, entity.RoleSpectator, payload.PlayerName); err != nil {
			room.Mu.Lock()
			delete(room.Spectators, connID)
			room.Mu.Unlock()

			return fmt.Errorf("failed to bind session: %w", err)
		}

		that.send(connID, ActionSpectatorMode, nil)

		log.Info("room full, joined as spectator", "roomCode", room.Code)

		return nil
	}

	seat := room.Seat(mark)
	seat.ConnID = connID
	seat.Name = payload.PlayerName
	seat.Online = true

	// a spectator promoted to a freed seat stops being a spectator
	delete(room.Spectators, connID)

	state := room.Snapshot()
	recipients := roomRecipients(room)
	room.Mu.Unlock()

	if err = that.sessions.Bind(connID, room.Code, mark, payload.PlayerName); err != nil {
		room.Mu.Lock()
		seat.ConnID = ""
		seat.Online = false
		room.Mu.Unlock()

		return fmt.Errorf("failed to bind session: %w", err)
	}

	that.send(connID, ActionGameState, GameStatePayload{RoomCode: room.Code, Room: state})
	that.broadcast(recipients, ActionPlayerJoined, PlayerJoinedPayload{
		Players:       state.Players,
		Board:         state.Board,
		CurrentPlayer: state.CurrentPlayer,
	})

	log.Info("player joined room", "roomCode", room.Code, "symbol", mark)

	return nil
}

func (that *Handler) handleQuickMatch(connID string, message *Message) error {
	log := that.logger.With("method", "handleQuickMatch")

	var payload QuickMatchPayload
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	sess, err := that.sessions.Lookup(connID)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if sess.InRoom() {
		that.leaveRoom(sess)
	}

	opponentID, opponentName, paired := that.queue.TryPair(connID, payload.PlayerName)
	if !paired {
		that.send(connID, ActionWaitingForOpponent, nil)

		log.Info("no opponent available, waiting", "connID", connID)

		return nil
	}

	room := that.rooms.CreateRoom()

	room.Mu.Lock()

	seatX := room.Seat(entity.PlayerX)
	seatX.ConnID = connID
	seatX.Name = payload.PlayerName
	seatX.Online = true

	seatO := room.Seat(entity.PlayerO)
	seatO.ConnID = opponentID
	seatO.Name = opponentName
	seatO.Online = true

	state := room.Snapshot()
	room.Mu.Unlock()

	if err := that.sessions.Bind(connID, room.Code, entity.PlayerX, payload.PlayerName); err != nil {
		that.rooms.DeleteRoom(room.Code)
		return fmt.Errorf("failed to bind session: %w", err)
	}

	// The opponent may have vanished between the queue pop and here: its
	// session can already be gone, claimed by another room, or its connection
	// closed after the bind. Either way the pairing is abandoned and the
	// requester goes back to waiting.
	if err := that.sessions.Bind(opponentID, room.Code, entity.PlayerO, opponentName); err != nil {
		that.abandonPairing(connID, room.Code, payload.PlayerName)

		log.Info("opponent lost before pairing completed", "connID", opponentID, "error", err)

		return nil
	}

	that.connsMu.RLock()
	_, opponentAlive := that.conns[opponentID]
	that.connsMu.RUnlock()

	if !opponentAlive {
		that.abandonPairing(connID, room.Code, payload.PlayerName)

		log.Info("opponent disconnected before pairing completed", "connID", opponentID)

		return nil
	}

	that.send(connID, ActionMatchFound, MatchFoundPayload{RoomCode: room.Code, Symbol: entity.PlayerX, Room: state})
	that.send(opponentID, ActionMatchFound, MatchFoundPayload{RoomCode: room.Code, Symbol: entity.PlayerO, Room: state})

	log.Info("match found", "roomCode", room.Code)

	return nil
}

// abandonPairing - rolls a half-built quick match back: the room is torn
// down and the requester is returned to the waiting queue as if no opponent
// had been found.
func (that *Handler) abandonPairing(connID, roomCode, playerName string) {
	that.rooms.DeleteRoom(roomCode)
	that.unbindSession(connID)

	that.queue.Enqueue(connID, playerName)
	that.send(connID, ActionWaitingForOpponent, nil)
}

func (that *Handler) handleMakeMove(connID string, message *Message) error {
	var payload MakeMovePayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.RoomCode == "" || payload.Index == nil {
		return nil
	}

	sess, err := that.sessions.Lookup(connID)
	if err != nil {
		return nil
	}

	room, err := that.rooms.GetRoom(payload.RoomCode)
	if err != nil {
		return nil
	}

	cell := *payload.Index

	room.Mu.Lock()

	// Invalid moves are dropped without a broadcast.
	if err = validateMove(room, sess, cell); err != nil {
		room.Mu.Unlock()
		that.logger.Debug("move dropped", "roomCode", room.Code, "cell", cell, "error", err)
		return nil
	}

	room.Board[cell] = sess.Role
	room.CurrentTurn = entity.ToggleMark(sess.Role)

	var winner *[3]int
	if line, won := tictactoe.CheckWinner(room.Board); won {
		room.Active = false
		winner = &line
	} else if tictactoe.IsFull(room.Board) {
		room.Active = false
	}

	resp := MoveMadePayload{
		Board:         room.Board,
		CurrentPlayer: room.CurrentTurn,
		Winner:        winner,
		GameActive:    room.Active,
	}
	recipients := roomRecipients(room)
	room.Mu.Unlock()

	that.broadcast(recipients, ActionMoveMade, resp)

	return nil
}

func (that *Handler) handleResetGame(connID string, message *Message) error {
	log := that.logger.With("method", "handleResetGame")

	var payload ResetGamePayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.RoomCode == "" {
		return nil
	}

	sess, err := that.sessions.Lookup(connID)
	if err != nil {
		return nil
	}

	room, err := that.rooms.GetRoom(payload.RoomCode)
	if err != nil {
		return nil
	}

	room.Mu.Lock()

	// Reset is only valid from a seated player once the game has ended.
	if sess.RoomCode != room.Code || !sess.IsSeated() || room.Active {
		room.Mu.Unlock()
		return nil
	}

	room.Reset()

	resp := GameResetPayload{Board: room.Board, CurrentPlayer: room.CurrentTurn}
	recipients := roomRecipients(room)
	room.Mu.Unlock()

	that.broadcast(recipients, ActionGameReset, resp)

	log.Info("game reset", "roomCode", room.Code)

	return nil
}

func (that *Handler) handleLeaveRoom(connID string, _ *Message) error {
	sess, err := that.sessions.Lookup(connID)
	if err != nil {
		return nil
	}

	if !sess.InRoom() {
		return nil
	}

	that.leaveRoom(sess)

	return nil
}

// leaveRoom - releases the session's seat or spectator slot, announces the
// departure and tears the room down once both seats are offline.
func (that *Handler) leaveRoom(sess *entity.Session) {
	log := that.logger.With("method", "leaveRoom")

	room, err := that.rooms.GetRoom(sess.RoomCode)
	if err != nil {
		that.unbindSession(sess.ConnID)
		return
	}

	symbol := sess.Role

	room.Mu.Lock()
	vacate(room, sess)
	players := room.PlayersState()
	empty := room.BothSeatsOffline()
	recipients := roomRecipients(room)
	room.Mu.Unlock()

	that.unbindSession(sess.ConnID)

	that.broadcast(recipients, ActionPlayerLeft, PlayerLeftPayload{Symbol: symbol, Players: players})

	if empty {
		that.rooms.DeleteRoom(room.Code)
		log.Info("room deleted, both seats offline", "roomCode", room.Code)
	}

	log.Info("player left room", "roomCode", room.Code, "symbol", symbol)
}

// vacateOnDisconnect - the transport-level twin of leave: same seat-offline
// handling, but the departure is announced as a disconnect.
func (that *Handler) vacateOnDisconnect(sess *entity.Session) {
	log := that.logger.With("method", "vacateOnDisconnect")

	room, err := that.rooms.GetRoom(sess.RoomCode)
	if err != nil {
		return
	}

	room.Mu.Lock()
	vacate(room, sess)
	empty := room.BothSeatsOffline()
	recipients := roomRecipients(room)
	room.Mu.Unlock()

	that.broadcast(recipients, ActionPlayerDisconnected, PlayerDisconnectedPayload{Symbol: sess.Role})

	if empty {
		that.rooms.DeleteRoom(room.Code)
		log.Info("room deleted, both seats offline", "roomCode", room.Code)
	}
}

// validateMove - checks a move against room and session state. Callers must
// hold the room lock.
func validateMove(room *entity.Room, sess *entity.Session, cell int) error {
	if sess.RoomCode != room.Code {
		return apperror.ErrNotInRoom
	}

	if !room.Active {
		return apperror.ErrGameNotActive
	}

	if sess.Role != room.CurrentTurn {
		return apperror.ErrNotYourTurn
	}

	if !tictactoe.IsLegalMove(room.Board, cell) {
		if cell < 0 || cell >= len(room.Board) {
			return apperror.ErrInvalidCell
		}
		return apperror.ErrCellOccupied
	}

	return nil
}

// vacate - releases the session's place in the room: a seat goes offline and
// unoccupied (the display name survives for the departure broadcast), a
// spectator is simply removed. Callers must hold the room lock.
func vacate(room *entity.Room, sess *entity.Session) {
	if sess.IsSeated() {
		seat := room.Seat(sess.Role)
		seat.ConnID = ""
		seat.Online = false
		return
	}

	delete(room.Spectators, sess.ConnID)
}

// roomRecipients - collects the connections subscribed to a room: occupied
// seats plus spectators. Callers must hold the room lock.
func roomRecipients(room *entity.Room) []string {
	recipients := make([]string, 0, len(room.Players)+len(room.Spectators))

	for _, seat := range room.Players {
		if seat.Occupied() {
			recipients = append(recipients, seat.ConnID)
		}
	}

	for connID := range room.Spectators {
		recipients = append(recipients, connID)
	}

	return recipients
}

func (that *Handler) unbindSession(connID string) {
	if err := that.sessions.Unbind(connID); err != nil {
		that.logger.Error("failed to unbind session", "connID", connID, "error", err)
	}
}

func (that *Handler) send(connID, action string, payload any) {
	log := that.logger.With("method", "send")

	message, err := NewMessage(action, payload)
	if err != nil {
		log.Error("failed to build message", "action", action, "error", err)
		return
	}

	that.connsMu.RLock()
	sender, ok := that.conns[connID]
	that.connsMu.RUnlock()

	if !ok {
		log.Warn("connection not found", "connID", connID)
		return
	}

	if err = sender.Send(message); err != nil {
		log.Error("failed to send message", "action", action, "error", err)
	}
}

func (that *Handler) broadcast(connIDs []string, action string, payload any) {
	for _, connID := range connIDs {
		that.send(connID, action, payload)
	}
}

func (that *Handler) sendError(connID, errorMsg string) {
	that.send(connID, ActionError, ErrorPayload{Message: errorMsg})
}
