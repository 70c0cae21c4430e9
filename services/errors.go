package services

import "errors"

// Shared errors surfaced by the service layer and mapped to HTTP statuses
// by the handlers.
var (
	// Not found
	ErrNotFound           = errors.New("requested resource not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrGameNotFound       = errors.New("game not found")
	ErrStandingNotFound   = errors.New("player standing not found")

	// Lifecycle violations
	ErrInvalidTransition       = errors.New("invalid tournament status transition")
	ErrRoundLimitReached       = errors.New("current round cannot advance past total rounds")
	ErrTournamentNotInProgress = errors.New("tournament is not in progress")
	ErrTournamentFinished      = errors.New("tournament is completed or cancelled")

	// Scoring violations
	ErrGameAlreadyCompleted = errors.New("game is already completed, scores are final")
	ErrInvalidScore         = errors.New("both scores are required and must be non-negative")

	// Validation and business rules
	ErrTournamentNameRequired    = errors.New("tournament name is required")
	ErrTournamentInvalidRounds   = errors.New("tournament total rounds must be at least 1")
	ErrTournamentInvalidCapacity = errors.New("tournament max players must be positive")
	ErrTournamentInvalidDates    = errors.New("tournament end date must be after start date")
	ErrPlayerNameRequired        = errors.New("player name is required")
	ErrTeamNameRequired          = errors.New("team name is required")
	ErrGameParticipantsRequired  = errors.New("game requires a complete player pair or team pair")
	ErrGameSameParticipant       = errors.New("game sides must reference different participants")
	ErrGameNotInTournament       = errors.New("game does not belong to this tournament")

	// Conflicts
	ErrTeamNameConflict        = errors.New("team name is already in use")
	ErrPlayerAlreadyRegistered = errors.New("player is already registered for this tournament")
	ErrTournamentFull          = errors.New("tournament registration is full")
	ErrPlayerInUse             = errors.New("player is referenced by games or standings")
	ErrTeamInUse               = errors.New("team is referenced by games")

	// Logo storage
	ErrUploaderUnavailable = errors.New("file storage is not configured")
	ErrUnsupportedLogoType = errors.New("unsupported logo content type")
)
