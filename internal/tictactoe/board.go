package tictactoe

import "github.com/rocketscienceinc/tictactoe-realtime/internal/entity"

// winLines are the 8 possible three-in-a-rows, scanned in a fixed order:
// rows, then columns, then diagonals. A board can hold at most one completed
// line at the moment a move lands, but the scan order keeps the reported
// line deterministic either way.
var winLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// CheckWinner - returns the first fully matched non-empty line.
func CheckWinner(board entity.Board) ([3]int, bool) {
	for _, line := range winLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return line, true
		}
	}

	return [3]int{}, false
}

// IsFull - true iff no empty cell remains.
func IsFull(board entity.Board) bool {
	for _, cell := range board {
		if cell == entity.EmptyCell {
			return false
		}
	}

	return true
}

// IsLegalMove - checks index range and cell vacancy. Turn ownership is a
// session-level concern and stays with the caller.
func IsLegalMove(board entity.Board, cell int) bool {
	if cell < 0 || cell >= len(board) {
		return false
	}

	return board[cell] == entity.EmptyCell
}
