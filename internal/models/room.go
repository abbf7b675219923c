// internal/models/room.go
package models

// RoomStatus tracks the room lifecycle. Transitions only move forward:
// lobby -> playing -> finished.
type RoomStatus string

const (
	RoomStatusLobby    RoomStatus = "lobby"
	RoomStatusPlaying  RoomStatus = "playing"
	RoomStatusFinished RoomStatus = "finished"
)

// DefaultTotalRounds is used when the host starts a game without
// picking a round count.
const DefaultTotalRounds = 5

// Room is a joinable session keyed by a short code. Players are kept in
// join order; exactly one of them is the host and matches HostID.
type Room struct {
	Code         string     `json:"code"`
	HostID       string     `json:"hostId"`
	Status       RoomStatus `json:"status"`
	Players      []Player   `json:"players"`
	CurrentRound int        `json:"currentRound"`
	TotalRounds  int        `json:"totalRounds"`
}

// FindPlayer returns the player with the given id, or nil.
func (r *Room) FindPlayer(id string) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// HasPlayer reports whether a player with the given id is in the room.
func (r *Room) HasPlayer(id string) bool {
	return r.FindPlayer(id) != nil
}

// Clone returns a deep copy of the room. The sync core hands copies to
// callers so reducer state is never shared mutable.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Players = make([]Player, len(r.Players))
	copy(cp.Players, r.Players)
	return &cp
}
