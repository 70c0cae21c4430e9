package models

import "time"

// TournamentStatus represents the lifecycle states of a tournament,
// matching the ENUM in the database.
type TournamentStatus string

const (
	StatusUpcoming   TournamentStatus = "upcoming"
	StatusInProgress TournamentStatus = "in_progress"
	StatusCompleted  TournamentStatus = "completed"
	StatusCancelled  TournamentStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s TournamentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is one of the known lifecycle states.
func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Tournament represents a round-based tournament. It owns its games and
// standings; players are shared references and survive tournament deletion.
type Tournament struct {
	ID           int              `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Description  *string          `json:"description,omitempty" db:"description"`
	StartDate    *time.Time       `json:"start_date,omitempty" db:"start_date"`
	EndDate      *time.Time       `json:"end_date,omitempty" db:"end_date"`
	Status       TournamentStatus `json:"status" db:"status"`
	CurrentRound int              `json:"current_round" db:"current_round"`
	TotalRounds  int              `json:"total_rounds" db:"total_rounds"`
	MaxPlayers   *int             `json:"max_players,omitempty" db:"max_players"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
	LogoKey      *string          `json:"-" db:"logo_key"`
	LogoURL      *string          `json:"logo_url,omitempty" db:"-"`

	// Optional linked entities, populated by services when requested.
	Players []Player `json:"players,omitempty" db:"-"`
	Games   []Game   `json:"games,omitempty" db:"-"`
}
