package entity

// Session - the binding between a live connection and its room and role.
// Role is PlayerX/PlayerO for seats, RoleSpectator for read-only watchers,
// and empty while the connection is unbound or queued for matchmaking.
type Session struct {
	ConnID   string
	RoomCode string
	Role     string
	Name     string
}

// InRoom - true once the session is bound to a room.
func (that *Session) InRoom() bool {
	return that.RoomCode != ""
}

// IsSeated - true when the session holds one of the two seats.
func (that *Session) IsSeated() bool {
	return that.Role == PlayerX || that.Role == PlayerO
}
