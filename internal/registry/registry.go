package registry

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/entity"
)

const (
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength   = 6
)

// Registry - owns every live room, keyed by join code. Rooms exist only for
// the lifetime of the process; there is no persistence.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room
}

func New() *Registry {
	return &Registry{
		rooms: make(map[string]*entity.Room),
	}
}

// CreateRoom - creates a room under a fresh unique code. Code generation is
// retried on collision so an existing room is never overwritten.
func (that *Registry) CreateRoom() *entity.Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	var code string
	for {
		code = generateRoomCode()
		if _, exists := that.rooms[code]; !exists {
			break
		}
	}

	room := entity.NewRoom(code)
	that.rooms[code] = room

	return room
}

func (that *Registry) GetRoom(code string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[code]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

// DeleteRoom - removes a room; called once both seats are offline.
func (that *Registry) DeleteRoom(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, code)
}

// Len - number of live rooms.
func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

// generateRoomCode - generates a 6-character uppercase base-36 join code.
func generateRoomCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			// crypto/rand never fails on supported platforms
			panic(err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}

	return string(code)
}
