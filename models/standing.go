package models

import "time"

// PlayerStanding is the accumulated points for one player within one
// tournament. The row doubles as roster membership: registering a player
// creates it with zero points, and the points-award step updates it when a
// game completes. Unique per (tournament_id, player_id).
type PlayerStanding struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	PlayerID     int       `json:"player_id" db:"player_id"`
	Points       int       `json:"points" db:"points"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Player *Player `json:"player,omitempty" db:"-"`
}
