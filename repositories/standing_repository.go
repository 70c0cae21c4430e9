package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aidosk/tournament-manager/models"
	"github.com/lib/pq"
)

var (
	ErrStandingNotFound          = errors.New("player standing not found")
	ErrStandingAlreadyExists     = errors.New("player is already registered for this tournament")
	ErrStandingPlayerInvalid     = errors.New("standing player conflict or invalid")
	ErrStandingTournamentInvalid = errors.New("standing tournament conflict or invalid")
)

type StandingRepository interface {
	Create(ctx context.Context, exec SQLExecutor, standing *models.PlayerStanding) error
	GetByTournamentAndPlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.PlayerStanding, error)
	GetOrCreate(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.PlayerStanding, error)
	// AddPoints applies a single point award to the accumulated total.
	AddPoints(ctx context.Context, exec SQLExecutor, tournamentID, playerID, delta int) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.PlayerStanding, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	Delete(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) Create(ctx context.Context, exec SQLExecutor, s *models.PlayerStanding) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO player_standings (tournament_id, player_id, points)
		VALUES ($1, $2, $3)
		RETURNING id, updated_at`

	err := executor.QueryRowContext(ctx, query, s.TournamentID, s.PlayerID, s.Points).
		Scan(&s.ID, &s.UpdatedAt)
	return r.handleStandingError(err)
}

func (r *postgresStandingRepository) GetByTournamentAndPlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.PlayerStanding, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, player_id, points, updated_at
		FROM player_standings
		WHERE tournament_id = $1 AND player_id = $2`

	s := &models.PlayerStanding{}
	err := executor.QueryRowContext(ctx, query, tournamentID, playerID).
		Scan(&s.ID, &s.TournamentID, &s.PlayerID, &s.Points, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, fmt.Errorf("failed to scan standing for t:%d p:%d: %w", tournamentID, playerID, err)
	}
	return s, nil
}

func (r *postgresStandingRepository) GetOrCreate(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.PlayerStanding, error) {
	executor := r.getExecutor(exec)
	standing, err := r.GetByTournamentAndPlayer(ctx, executor, tournamentID, playerID)
	if err != nil {
		if errors.Is(err, ErrStandingNotFound) {
			newStanding := &models.PlayerStanding{
				TournamentID: tournamentID,
				PlayerID:     playerID,
			}
			if createErr := r.Create(ctx, executor, newStanding); createErr != nil {
				return nil, fmt.Errorf("failed to create standing for t:%d p:%d: %w", tournamentID, playerID, createErr)
			}
			return newStanding, nil
		}
		return nil, err
	}
	return standing, nil
}

func (r *postgresStandingRepository) AddPoints(ctx context.Context, exec SQLExecutor, tournamentID, playerID, delta int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE player_standings
		SET points = points + $1, updated_at = NOW()
		WHERE tournament_id = $2 AND player_id = $3`

	result, err := executor.ExecContext(ctx, query, delta, tournamentID, playerID)
	if err != nil {
		return fmt.Errorf("failed to add points for t:%d p:%d: %w", tournamentID, playerID, err)
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.PlayerStanding, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, player_id, points, updated_at
		FROM player_standings
		WHERE tournament_id = $1
		ORDER BY points DESC, player_id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	standings := make([]*models.PlayerStanding, 0)
	for rows.Next() {
		var s models.PlayerStanding
		if scanErr := rows.Scan(&s.ID, &s.TournamentID, &s.PlayerID, &s.Points, &s.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", scanErr)
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standing rows iteration: %w", err)
	}
	return standings, nil
}

func (r *postgresStandingRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	query := `SELECT COUNT(*) FROM player_standings WHERE tournament_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count standings for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresStandingRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM player_standings WHERE tournament_id = $1 AND player_id = $2`

	result, err := executor.ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM player_standings WHERE tournament_id = $1`

	_, err := executor.ExecContext(ctx, query, tournamentID)
	return err
}

func (r *postgresStandingRepository) handleStandingError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch {
		case pqErr.Code == "23505" && pqErr.Constraint == "player_standings_tournament_id_player_id_key":
			return ErrStandingAlreadyExists
		case pqErr.Constraint == "player_standings_player_id_fkey":
			return ErrStandingPlayerInvalid
		case pqErr.Constraint == "player_standings_tournament_id_fkey":
			return ErrStandingTournamentInvalid
		}
	}
	return err
}
