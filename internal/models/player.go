// internal/models/player.go
package models

// Player is one participant in a room, identified by a stable
// per-device profile id.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	AvatarID int    `json:"avatarId"`
	Score    int    `json:"score"`
	IsOnline bool   `json:"isOnline"`
	IsHost   bool   `json:"isHost"`
}

// Avatar is one entry in the fixed avatar set players pick from.
type Avatar struct {
	ID    int    `json:"id"`
	Emoji string `json:"emoji"`
	Name  string `json:"name"`
}

// Avatars is the fixed avatar set. AvatarID indexes into it.
var Avatars = []Avatar{
	{0, "🦊", "Fox"},
	{1, "🐼", "Panda"},
	{2, "🦁", "Lion"},
	{3, "🐨", "Koala"},
	{4, "🐸", "Frog"},
	{5, "🦄", "Unicorn"},
	{6, "🐙", "Octopus"},
	{7, "🦋", "Butterfly"},
	{8, "🐳", "Whale"},
	{9, "🦉", "Owl"},
	{10, "🐯", "Tiger"},
	{11, "🐰", "Rabbit"},
	{12, "🦈", "Shark"},
	{13, "🐲", "Dragon"},
	{14, "🦜", "Parrot"},
	{15, "🐺", "Wolf"},
}
