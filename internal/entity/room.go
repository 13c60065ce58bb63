package entity

import "sync"

// Seat - one of the two playing roles in a room. ConnID is the occupant
// connection, empty while the seat is free.
type Seat struct {
	ConnID string `json:"-"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

// Occupied - reports whether a live connection holds the seat.
func (that *Seat) Occupied() bool {
	return that.ConnID != ""
}

// Room - one ongoing or finished match plus its two seats and spectators.
//
// All mutations of board, turn and seats must happen under Mu: two
// connections may act on the same room at once (a join racing a move), and
// the room is the unit of serialization.
type Room struct {
	Code        string
	Players     map[string]*Seat
	Board       Board
	CurrentTurn string
	Active      bool
	Spectators  map[string]struct{}

	Mu sync.Mutex
}

func NewRoom(code string) *Room {
	return &Room{
		Code: code,
		Players: map[string]*Seat{
			PlayerX: {},
			PlayerO: {},
		},
		CurrentTurn: PlayerX,
		Active:      true,
		Spectators:  make(map[string]struct{}),
	}
}

// Seat - returns the seat for the given mark, nil for non-seat roles.
func (that *Room) Seat(mark string) *Seat {
	return that.Players[mark]
}

// FreeSeat - returns the first unoccupied seat mark, X before O.
func (that *Room) FreeSeat() (string, bool) {
	for _, mark := range []string{PlayerX, PlayerO} {
		if !that.Players[mark].Occupied() {
			return mark, true
		}
	}

	return "", false
}

// SeatByConn - returns the mark of the seat held by the given connection.
func (that *Room) SeatByConn(connID string) (string, bool) {
	for mark, seat := range that.Players {
		if seat.ConnID == connID {
			return mark, true
		}
	}

	return "", false
}

// BothSeatsOffline - true when no seat has an online occupant. A room in this
// state is dead and must be removed from the registry.
func (that *Room) BothSeatsOffline() bool {
	for _, seat := range that.Players {
		if seat.Online {
			return false
		}
	}

	return true
}

// Reset - clears the board for a rematch: X to move, game active again.
func (that *Room) Reset() {
	that.Board = Board{}
	that.CurrentTurn = PlayerX
	that.Active = true
}

// State - the serializable view of a room sent to clients. Seats are copied
// by value so the snapshot stays stable after the room lock is released.
type State struct {
	Code          string          `json:"code"`
	Players       map[string]Seat `json:"players"`
	Board         Board           `json:"board"`
	CurrentPlayer string          `json:"currentPlayer"`
	GameActive    bool            `json:"gameActive"`
}

// Snapshot - copies the room state for broadcasting. Callers must hold Mu.
func (that *Room) Snapshot() State {
	return State{
		Code:          that.Code,
		Players:       that.PlayersState(),
		Board:         that.Board,
		CurrentPlayer: that.CurrentTurn,
		GameActive:    that.Active,
	}
}

// PlayersState - copies the seats keyed by mark. Callers must hold Mu.
func (that *Room) PlayersState() map[string]Seat {
	players := make(map[string]Seat, len(that.Players))
	for mark, seat := range that.Players {
		players[mark] = *seat
	}

	return players
}
