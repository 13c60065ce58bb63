package protocol

import "github.com/rocketscienceinc/tictactoe-realtime/internal/entity"

// Client event payloads. Each action carries a fixed field set; messages
// that fail to decode or miss required fields are dropped.

type CreateRoomPayload struct {
	PlayerName string `json:"playerName,omitempty"`
}

type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type QuickMatchPayload struct {
	PlayerName string `json:"playerName"`
}

type MakeMovePayload struct {
	RoomCode string `json:"roomCode"`
	Index    *int   `json:"index"`
}

type ResetGamePayload struct {
	RoomCode string `json:"roomCode"`
}

// Server event payloads.

type RoomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
}

type MatchFoundPayload struct {
	RoomCode string       `json:"roomCode"`
	Symbol   string       `json:"symbol"`
	Room     entity.State `json:"room"`
}

type GameStatePayload struct {
	RoomCode string       `json:"roomCode"`
	Room     entity.State `json:"room"`
}

type PlayerJoinedPayload struct {
	Players       map[string]entity.Seat `json:"players"`
	Board         entity.Board           `json:"board"`
	CurrentPlayer string                 `json:"currentPlayer"`
}

type MoveMadePayload struct {
	Board         entity.Board `json:"board"`
	CurrentPlayer string       `json:"currentPlayer"`
	Winner        *[3]int      `json:"winner"`
	GameActive    bool         `json:"gameActive"`
}

type GameResetPayload struct {
	Board         entity.Board `json:"board"`
	CurrentPlayer string       `json:"currentPlayer"`
}

type PlayerLeftPayload struct {
	Symbol  string                 `json:"symbol"`
	Players map[string]entity.Seat `json:"players"`
}

type PlayerDisconnectedPayload struct {
	Symbol string `json:"symbol"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
