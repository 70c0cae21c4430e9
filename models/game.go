package models

import "time"

type GameStatus string

const (
	GameStatusScheduled  GameStatus = "scheduled"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusCompleted  GameStatus = "completed"
	GameStatusCancelled  GameStatus = "cancelled"
)

// Game is a single fixture inside a tournament. A game carries two optional
// participant pairs: a player pair and a team pair. Either pair may be
// populated independently (a player-vs-player game, a team-vs-team game, or
// both when players represent teams). Side 1 fields belong together, as do
// side 2 fields. The owning tournament never changes after creation.
type Game struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Player1ID    *int       `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID    *int       `json:"player2_id,omitempty" db:"player2_id"`
	Team1ID      *int       `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID      *int       `json:"team2_id,omitempty" db:"team2_id"`
	Score1       *int       `json:"score1,omitempty" db:"score1"`
	Score2       *int       `json:"score2,omitempty" db:"score2"`
	Status       GameStatus `json:"status" db:"status"`
	GameDate     *time.Time `json:"game_date,omitempty" db:"game_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// HasPlayerPair reports whether both player slots are populated.
func (g *Game) HasPlayerPair() bool {
	return g.Player1ID != nil && g.Player2ID != nil
}

// HasTeamPair reports whether both team slots are populated.
func (g *Game) HasTeamPair() bool {
	return g.Team1ID != nil && g.Team2ID != nil
}

// IsDraw reports whether both scores are present and equal.
func (g *Game) IsDraw() bool {
	return g.Score1 != nil && g.Score2 != nil && *g.Score1 == *g.Score2
}

// WinnerSlot returns 1 or 2 for the side with the strictly higher score,
// and 0 when the scores are incomplete or equal.
func (g *Game) WinnerSlot() int {
	if g.Score1 == nil || g.Score2 == nil || *g.Score1 == *g.Score2 {
		return 0
	}
	if *g.Score1 > *g.Score2 {
		return 1
	}
	return 2
}

// WinnerPlayerID returns the winning player's id, or nil when the game has
// no player pair, is incomplete, or ended in a draw.
func (g *Game) WinnerPlayerID() *int {
	switch g.WinnerSlot() {
	case 1:
		return g.Player1ID
	case 2:
		return g.Player2ID
	}
	return nil
}

// WinnerTeamID returns the winning team's id, or nil when the game has no
// team pair, is incomplete, or ended in a draw.
func (g *Game) WinnerTeamID() *int {
	switch g.WinnerSlot() {
	case 1:
		return g.Team1ID
	case 2:
		return g.Team2ID
	}
	return nil
}
