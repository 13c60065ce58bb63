package entity

import (
	"encoding/json"
	"fmt"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	RoleSpectator = "SPECTATOR"

	EmptyCell = ""
)

const BoardSize = 9

// Board is the 3x3 grid in row-major order. Empty cells are EmptyCell
// internally and null on the wire.
type Board [BoardSize]string

// ToggleMark - returns the mark of the other seat.
func ToggleMark(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Board) MarshalJSON() ([]byte, error) {
	cells := make([]*string, BoardSize)
	for i := range that {
		if that[i] == EmptyCell {
			continue
		}

		mark := that[i]
		cells[i] = &mark
	}

	data, err := json.Marshal(cells)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}

	return data, nil
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var cells []*string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	if len(cells) != BoardSize {
		return fmt.Errorf("expected %d cells, got %d", BoardSize, len(cells))
	}

	for i, cell := range cells {
		if cell == nil {
			that[i] = EmptyCell
			continue
		}
		that[i] = *cell
	}

	return nil
}
