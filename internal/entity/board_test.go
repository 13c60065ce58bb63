package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoard_JSON(t *testing.T) {
	// Given: a board with two marks
	board := Board{PlayerX, EmptyCell, PlayerO}

	// When: the board is marshaled
	data, err := json.Marshal(board)
	require.NoError(t, err)

	// Then: empty cells go out as null
	require.JSONEq(t, `["X",null,"O",null,null,null,null,null,null]`, string(data))

	// When: the wire form comes back
	var decoded Board
	require.NoError(t, json.Unmarshal(data, &decoded))

	// Then: null cells are empty again
	require.Equal(t, board, decoded)
}
