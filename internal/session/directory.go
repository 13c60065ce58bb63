package session

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/entity"
)

// Directory - owns the connection to session mapping. It only manages the
// bindings: seat bookkeeping and room cleanup on unbind belong to the
// protocol handler.
type Directory struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

func New() *Directory {
	return &Directory{
		sessions: make(map[string]*entity.Session),
	}
}

// Create - registers a fresh session for a new connection.
func (that *Directory) Create(connID string) *entity.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	sess := &entity.Session{ConnID: connID}
	that.sessions[connID] = sess

	return sess
}

func (that *Directory) Lookup(connID string) (*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sess, ok := that.sessions[connID]
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	return sess, nil
}

// Bind - attaches the session to a room with the given role. A session
// already bound to a different room is rejected, so two handlers racing to
// seat the same connection cannot both win.
func (that *Directory) Bind(connID, roomCode, role, name string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	sess, ok := that.sessions[connID]
	if !ok {
		return apperror.ErrSessionNotFound
	}

	if sess.RoomCode != "" && sess.RoomCode != roomCode {
		return apperror.ErrSessionBusy
	}

	sess.RoomCode = roomCode
	sess.Role = role
	sess.Name = name

	return nil
}

// Unbind - detaches the session from its room, keeping the display name.
func (that *Directory) Unbind(connID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	sess, ok := that.sessions[connID]
	if !ok {
		return apperror.ErrSessionNotFound
	}

	sess.RoomCode = ""
	sess.Role = ""

	return nil
}

// Delete - destroys the session; called exactly once on disconnect.
func (that *Directory) Delete(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sessions, connID)
}
