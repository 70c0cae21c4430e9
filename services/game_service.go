package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidosk/tournament-manager/live"
	"github.com/aidosk/tournament-manager/models"
	"github.com/aidosk/tournament-manager/repositories"
)

// Points awarded to player standings when a game completes.
const (
	pointsForWin  = 3
	pointsForDraw = 1
)

type CreateGameInput struct {
	Player1ID *int       `json:"player1_id"`
	Player2ID *int       `json:"player2_id"`
	Team1ID   *int       `json:"team1_id"`
	Team2ID   *int       `json:"team2_id"`
	GameDate  *time.Time `json:"game_date"`
}

type GameService interface {
	CreateGame(ctx context.Context, tournamentID int, input CreateGameInput) (*models.Game, error)
	GetGameByID(ctx context.Context, tournamentID, gameID int) (*models.Game, error)
	ListGamesByTournament(ctx context.Context, tournamentID int, status *models.GameStatus) ([]*models.Game, error)
	// RecordScore writes the final score, marks the game completed and awards
	// standing points, all in one transaction.
	RecordScore(ctx context.Context, tournamentID, gameID, score1, score2 int) (*models.Game, error)
	DeleteGame(ctx context.Context, tournamentID, gameID int) error
}

type gameService struct {
	db             *sql.DB
	gameRepo       repositories.GameRepository
	tournamentRepo repositories.TournamentRepository
	standingRepo   repositories.StandingRepository
	stats          StatsService
	hub            *live.Hub
	logger         *slog.Logger
}

func NewGameService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	tournamentRepo repositories.TournamentRepository,
	standingRepo repositories.StandingRepository,
	stats StatsService,
	hub *live.Hub,
	logger *slog.Logger,
) GameService {
	return &gameService{
		db:             db,
		gameRepo:       gameRepo,
		tournamentRepo: tournamentRepo,
		standingRepo:   standingRepo,
		stats:          stats,
		hub:            hub,
		logger:         logger,
	}
}

func translateGameRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrGameNotFound):
		return ErrGameNotFound
	case errors.Is(err, repositories.ErrGameTournamentInvalid):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrGameParticipantInvalid):
		return ErrGameParticipantsRequired
	}
	return err
}

func validateGameParticipants(input CreateGameInput) error {
	hasPlayerPair := input.Player1ID != nil && input.Player2ID != nil
	hasTeamPair := input.Team1ID != nil && input.Team2ID != nil

	// Half-filled pairs are rejected outright.
	if (input.Player1ID == nil) != (input.Player2ID == nil) {
		return ErrGameParticipantsRequired
	}
	if (input.Team1ID == nil) != (input.Team2ID == nil) {
		return ErrGameParticipantsRequired
	}
	if !hasPlayerPair && !hasTeamPair {
		return ErrGameParticipantsRequired
	}

	if hasPlayerPair && *input.Player1ID == *input.Player2ID {
		return ErrGameSameParticipant
	}
	if hasTeamPair && *input.Team1ID == *input.Team2ID {
		return ErrGameSameParticipant
	}
	return nil
}

func (s *gameService) CreateGame(ctx context.Context, tournamentID int, input CreateGameInput) (*models.Game, error) {
	if err := validateGameParticipants(input); err != nil {
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, translateTournamentRepoError(err)
	}
	if tournament.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot create games in status %q", ErrTournamentFinished, tournament.Status)
	}

	game := &models.Game{
		TournamentID: tournamentID,
		Player1ID:    input.Player1ID,
		Player2ID:    input.Player2ID,
		Team1ID:      input.Team1ID,
		Team2ID:      input.Team2ID,
		Status:       models.GameStatusScheduled,
		GameDate:     input.GameDate,
	}
	if err := s.gameRepo.Create(ctx, nil, game); err != nil {
		return nil, translateGameRepoError(err)
	}

	s.broadcastGame(game)
	return game, nil
}

func (s *gameService) GetGameByID(ctx context.Context, tournamentID, gameID int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, translateGameRepoError(err)
	}
	if game.TournamentID != tournamentID {
		return nil, ErrGameNotInTournament
	}
	return game, nil
}

func (s *gameService) ListGamesByTournament(ctx context.Context, tournamentID int, status *models.GameStatus) ([]*models.Game, error) {
	exists, err := s.tournamentRepo.ExistsByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTournamentNotFound
	}
	return s.gameRepo.ListByTournament(ctx, nil, tournamentID, status)
}

// RecordScore is the only path that completes a game. The tournament row is
// locked first, then the game row, so concurrent writers queue in a fixed
// order; the loser of a race observes the completed status and fails, which
// keeps the points award exactly-once.
func (s *gameService) RecordScore(ctx context.Context, tournamentID, gameID, score1, score2 int) (*models.Game, error) {
	if score1 < 0 || score2 < 0 {
		return nil, ErrInvalidScore
	}

	var game *models.Game
	err := withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			return translateTournamentRepoError(err)
		}
		if tournament.Status != models.StatusInProgress {
			return fmt.Errorf("%w: status is %q", ErrTournamentNotInProgress, tournament.Status)
		}

		g, err := s.gameRepo.GetByIDForUpdate(ctx, tx, gameID)
		if err != nil {
			return translateGameRepoError(err)
		}
		if g.TournamentID != tournamentID {
			return ErrGameNotInTournament
		}
		switch g.Status {
		case models.GameStatusCompleted:
			return ErrGameAlreadyCompleted
		case models.GameStatusCancelled:
			return fmt.Errorf("%w: game is cancelled", ErrGameAlreadyCompleted)
		}

		if err := s.gameRepo.UpdateScore(ctx, tx, gameID, score1, score2, models.GameStatusCompleted); err != nil {
			return translateGameRepoError(err)
		}

		g.Score1 = intPtr(score1)
		g.Score2 = intPtr(score2)
		g.Status = models.GameStatusCompleted

		if err := s.awardPoints(ctx, tx, g); err != nil {
			return err
		}
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastGame(game)
	s.broadcastStats(ctx, tournamentID)
	return game, nil
}

// awardPoints applies the completed game's result to the player standings:
// 3 points to the winner, 1 to each player on a draw. Both players get a
// standing link even when only one scores, so a losing result still shows up
// in the standings. Team pairs carry no standing rows; team results are
// derived by the stats aggregation.
func (s *gameService) awardPoints(ctx context.Context, tx *sql.Tx, game *models.Game) error {
	if !game.HasPlayerPair() {
		return nil
	}

	for _, playerID := range []int{*game.Player1ID, *game.Player2ID} {
		if _, err := s.standingRepo.GetOrCreate(ctx, tx, game.TournamentID, playerID); err != nil {
			return err
		}
	}

	type award struct {
		playerID int
		points   int
	}
	var awards []award
	if game.IsDraw() {
		awards = []award{
			{playerID: *game.Player1ID, points: pointsForDraw},
			{playerID: *game.Player2ID, points: pointsForDraw},
		}
	} else if winner := game.WinnerPlayerID(); winner != nil {
		awards = []award{{playerID: *winner, points: pointsForWin}}
	}

	for _, a := range awards {
		if err := s.standingRepo.AddPoints(ctx, tx, game.TournamentID, a.playerID, a.points); err != nil {
			return fmt.Errorf("failed to award %d points to player %d: %w", a.points, a.playerID, err)
		}
	}
	return nil
}

func (s *gameService) DeleteGame(ctx context.Context, tournamentID, gameID int) error {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return translateGameRepoError(err)
	}
	if game.TournamentID != tournamentID {
		return ErrGameNotInTournament
	}
	return translateGameRepoError(s.gameRepo.Delete(ctx, gameID))
}

func (s *gameService) broadcastGame(game *models.Game) {
	if s.hub == nil || game == nil {
		return
	}
	s.hub.BroadcastToTournament(game.TournamentID, live.EventGameUpdated, game)
}

// broadcastStats pushes a fresh standings snapshot after a score commits.
// Failures are logged, not returned; the score is already durable.
func (s *gameService) broadcastStats(ctx context.Context, tournamentID int) {
	if s.hub == nil || s.stats == nil {
		return
	}
	stats, err := s.stats.ComputeStats(ctx, tournamentID)
	if err != nil {
		s.logger.Warn("failed to compute stats for broadcast",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	s.hub.BroadcastToTournament(tournamentID, live.EventStatsUpdated, stats)
}
