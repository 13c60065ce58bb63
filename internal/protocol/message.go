package protocol

import (
	"encoding/json"
	"fmt"
)

// Client to server actions.
const (
	ActionCreateRoom = "create_room"
	ActionJoinRoom   = "join_room"
	ActionQuickMatch = "quick_match"
	ActionMakeMove   = "make_move"
	ActionResetGame  = "reset_game"
	ActionLeaveRoom  = "leave_room"
)

// Server to client actions.
const (
	ActionRoomCreated        = "room_created"
	ActionMatchFound         = "match_found"
	ActionWaitingForOpponent = "waiting_for_opponent"
	ActionSpectatorMode      = "spectator_mode"
	ActionGameState          = "game_state"
	ActionPlayerJoined       = "player_joined"
	ActionMoveMade           = "move_made"
	ActionGameReset          = "game_reset"
	ActionPlayerLeft         = "player_left"
	ActionPlayerDisconnected = "player_disconnected"
	ActionError              = "error"
)

// Message represents a protocol message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage - builds a message with the marshaled payload. A nil payload
// produces a message with the action alone.
func NewMessage(action string, payload any) (*Message, error) {
	message := &Message{Action: action}

	if payload == nil {
		return message, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	message.Payload = data

	return message, nil
}
