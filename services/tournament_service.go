package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aidosk/tournament-manager/live"
	"github.com/aidosk/tournament-manager/models"
	"github.com/aidosk/tournament-manager/repositories"
	"github.com/aidosk/tournament-manager/storage"
)

type CreateTournamentInput struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	MaxPlayers  *int       `json:"max_players"`
	TotalRounds *int       `json:"total_rounds"`
}

type UpdateTournamentInput struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	MaxPlayers  *int       `json:"max_players"`
	TotalRounds *int       `json:"total_rounds"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	UpdateTournamentDetails(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id int) error

	StartTournament(ctx context.Context, id int) (*models.Tournament, error)
	AdvanceRound(ctx context.Context, id int) (*models.Tournament, error)
	CompleteTournament(ctx context.Context, id int) (*models.Tournament, error)
	CancelTournament(ctx context.Context, id int) (*models.Tournament, error)

	RegisterPlayer(ctx context.Context, tournamentID, playerID int) (*models.PlayerStanding, error)
	UnregisterPlayer(ctx context.Context, tournamentID, playerID int) error
	ListTournamentPlayers(ctx context.Context, tournamentID int) ([]models.Player, error)

	UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error)
	RemoveLogo(ctx context.Context, id int) error
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	gameRepo       repositories.GameRepository
	standingRepo   repositories.StandingRepository
	uploader       storage.FileUploader
	hub            *live.Hub
	logger         *slog.Logger

	// strictCompletion restricts CompleteTournament to in_progress
	// tournaments. The permissive default mirrors the historical behavior.
	strictCompletion bool
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	gameRepo repositories.GameRepository,
	standingRepo repositories.StandingRepository,
	uploader storage.FileUploader,
	hub *live.Hub,
	logger *slog.Logger,
	strictCompletion bool,
) TournamentService {
	return &tournamentService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		playerRepo:       playerRepo,
		gameRepo:         gameRepo,
		standingRepo:     standingRepo,
		uploader:         uploader,
		hub:              hub,
		logger:           logger,
		strictCompletion: strictCompletion,
	}
}

func translateTournamentRepoError(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}

	totalRounds := 1
	if input.TotalRounds != nil {
		totalRounds = *input.TotalRounds
	}
	if totalRounds < 1 {
		return nil, ErrTournamentInvalidRounds
	}
	if input.MaxPlayers != nil && *input.MaxPlayers <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}
	if input.StartDate != nil && input.EndDate != nil && !input.StartDate.Before(*input.EndDate) {
		return nil, ErrTournamentInvalidDates
	}

	tournament := &models.Tournament{
		Name:         input.Name,
		Description:  input.Description,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Status:       models.StatusUpcoming,
		CurrentRound: 0,
		TotalRounds:  totalRounds,
		MaxPlayers:   input.MaxPlayers,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateTournamentRepoError(err)
	}
	populateTournamentLogoURL(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		populateTournamentLogoURL(&tournaments[i], s.uploader)
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateTournamentDetails(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateTournamentRepoError(err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrTournamentNameRequired
		}
		tournament.Name = *input.Name
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.StartDate != nil {
		tournament.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		tournament.EndDate = input.EndDate
	}
	if tournament.StartDate != nil && tournament.EndDate != nil && !tournament.StartDate.Before(*tournament.EndDate) {
		return nil, ErrTournamentInvalidDates
	}
	if input.MaxPlayers != nil {
		if *input.MaxPlayers <= 0 {
			return nil, ErrTournamentInvalidCapacity
		}
		tournament.MaxPlayers = input.MaxPlayers
	}
	if input.TotalRounds != nil {
		// The current round may never exceed the total, so the total cannot
		// shrink below rounds already played.
		if *input.TotalRounds < 1 || *input.TotalRounds < tournament.CurrentRound {
			return nil, ErrTournamentInvalidRounds
		}
		tournament.TotalRounds = *input.TotalRounds
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, translateTournamentRepoError(err)
	}
	populateTournamentLogoURL(tournament, s.uploader)
	return tournament, nil
}

// DeleteTournament removes the tournament together with its games and
// standings. Players are shared entities and are never cascade-deleted.
func (s *tournamentService) DeleteTournament(ctx context.Context, id int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return translateTournamentRepoError(err)
	}

	err = withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.gameRepo.DeleteByTournament(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete games of tournament %d: %w", id, err)
		}
		if err := s.standingRepo.DeleteByTournament(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete standings of tournament %d: %w", id, err)
		}
		return translateTournamentRepoError(s.tournamentRepo.Delete(ctx, tx, id))
	})
	if err != nil {
		return err
	}

	if tournament.LogoKey != nil && s.uploader != nil {
		if delErr := s.uploader.Delete(ctx, *tournament.LogoKey); delErr != nil {
			s.logger.Warn("failed to delete tournament logo object",
				slog.Int("tournament_id", id), slog.Any("error", delErr))
		}
	}
	return nil
}

// StartTournament moves an upcoming tournament into play: status becomes
// in_progress, the round counter starts at 1 and the start date is stamped
// if it was never set.
func (s *tournamentService) StartTournament(ctx context.Context, id int) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		t, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return translateTournamentRepoError(err)
		}
		if t.Status != models.StatusUpcoming {
			return fmt.Errorf("%w: cannot start tournament in status %q", ErrInvalidTransition, t.Status)
		}

		t.Status = models.StatusInProgress
		t.CurrentRound = 1
		if t.StartDate == nil {
			now := time.Now()
			t.StartDate = &now
		}
		if err := s.tournamentRepo.UpdateState(ctx, tx, t); err != nil {
			return err
		}
		tournament = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(tournament)
	return tournament, nil
}

// AdvanceRound increments the round counter of an in-progress tournament.
// The row lock taken by the read serializes concurrent calls, so two racing
// requests cannot jump the counter by two.
func (s *tournamentService) AdvanceRound(ctx context.Context, id int) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		t, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return translateTournamentRepoError(err)
		}
		if t.Status != models.StatusInProgress {
			return fmt.Errorf("%w: cannot advance round in status %q", ErrInvalidTransition, t.Status)
		}
		if t.CurrentRound >= t.TotalRounds {
			return fmt.Errorf("%w: round %d of %d", ErrRoundLimitReached, t.CurrentRound, t.TotalRounds)
		}

		t.CurrentRound++
		if err := s.tournamentRepo.UpdateState(ctx, tx, t); err != nil {
			return err
		}
		tournament = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(tournament)
	return tournament, nil
}

// CompleteTournament finishes a tournament and stamps the end date. By
// default any non-terminal tournament can be completed; strict mode requires
// it to be in progress.
func (s *tournamentService) CompleteTournament(ctx context.Context, id int) (*models.Tournament, error) {
	return s.finish(ctx, id, models.StatusCompleted)
}

// CancelTournament marks a non-terminal tournament as cancelled.
func (s *tournamentService) CancelTournament(ctx context.Context, id int) (*models.Tournament, error) {
	return s.finish(ctx, id, models.StatusCancelled)
}

func (s *tournamentService) finish(ctx context.Context, id int, target models.TournamentStatus) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		t, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return translateTournamentRepoError(err)
		}
		if t.Status.Terminal() {
			return fmt.Errorf("%w: tournament already in terminal status %q", ErrInvalidTransition, t.Status)
		}
		if target == models.StatusCompleted && s.strictCompletion && t.Status != models.StatusInProgress {
			return fmt.Errorf("%w: strict completion requires an in-progress tournament, got %q", ErrInvalidTransition, t.Status)
		}

		t.Status = target
		if target == models.StatusCompleted {
			now := time.Now()
			t.EndDate = &now
		}
		if err := s.tournamentRepo.UpdateState(ctx, tx, t); err != nil {
			return err
		}
		tournament = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(tournament)
	return tournament, nil
}

// RegisterPlayer adds a player to the tournament roster by creating the
// zero-point standing link.
func (s *tournamentService) RegisterPlayer(ctx context.Context, tournamentID, playerID int) (*models.PlayerStanding, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, translateTournamentRepoError(err)
	}
	if tournament.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot register players in status %q", ErrTournamentFinished, tournament.Status)
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	if tournament.MaxPlayers != nil {
		count, err := s.standingRepo.CountByTournament(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		if count >= *tournament.MaxPlayers {
			return nil, ErrTournamentFull
		}
	}

	standing := &models.PlayerStanding{
		TournamentID: tournamentID,
		PlayerID:     playerID,
	}
	if err := s.standingRepo.Create(ctx, nil, standing); err != nil {
		if errors.Is(err, repositories.ErrStandingAlreadyExists) {
			return nil, ErrPlayerAlreadyRegistered
		}
		return nil, err
	}
	standing.Player = player
	return standing, nil
}

func (s *tournamentService) UnregisterPlayer(ctx context.Context, tournamentID, playerID int) error {
	exists, err := s.tournamentRepo.ExistsByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTournamentNotFound
	}

	if err := s.standingRepo.Delete(ctx, nil, tournamentID, playerID); err != nil {
		if errors.Is(err, repositories.ErrStandingNotFound) {
			return ErrStandingNotFound
		}
		return err
	}
	return nil
}

func (s *tournamentService) ListTournamentPlayers(ctx context.Context, tournamentID int) ([]models.Player, error) {
	exists, err := s.tournamentRepo.ExistsByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTournamentNotFound
	}

	players, err := s.playerRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}

	result := make([]models.Player, 0, len(players))
	for _, p := range players {
		if p != nil {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrUploaderUnavailable
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateTournamentRepoError(err)
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/logo%s", id, ext)
	if tournament.LogoKey != nil && *tournament.LogoKey != key {
		if delErr := s.uploader.Delete(ctx, *tournament.LogoKey); delErr != nil {
			s.logger.Warn("failed to delete previous tournament logo",
				slog.Int("tournament_id", id), slog.Any("error", delErr))
		}
	}

	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, err
	}
	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, &key); err != nil {
		return nil, translateTournamentRepoError(err)
	}

	tournament.LogoKey = &key
	populateTournamentLogoURL(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) RemoveLogo(ctx context.Context, id int) error {
	if s.uploader == nil {
		return ErrUploaderUnavailable
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return translateTournamentRepoError(err)
	}
	if tournament.LogoKey == nil {
		return nil
	}

	if err := s.uploader.Delete(ctx, *tournament.LogoKey); err != nil {
		return err
	}
	return translateTournamentRepoError(s.tournamentRepo.UpdateLogoKey(ctx, id, nil))
}

func (s *tournamentService) broadcast(t *models.Tournament) {
	if s.hub == nil || t == nil {
		return
	}
	s.hub.BroadcastToTournament(t.ID, live.EventTournamentUpdated, t)
}
