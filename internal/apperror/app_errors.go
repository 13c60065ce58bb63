package apperror

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrGameNotActive   = errors.New("game is not active")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrNotInRoom       = errors.New("session is not bound to this room")
	ErrSessionBusy     = errors.New("session is already bound to another room")
)
