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
	ErrGameNotFound           = errors.New("game not found")
	ErrGameTournamentInvalid  = errors.New("game tournament conflict or invalid")
	ErrGameParticipantInvalid = errors.New("game participant conflict or invalid")
)

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	// GetByIDForUpdate locks the game row so that only one concurrent score
	// write can transition it to completed.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, status *models.GameStatus) ([]*models.Game, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, id int, score1, score2 int, status models.GameStatus) error
	Delete(ctx context.Context, id int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `
	id, tournament_id, player1_id, player2_id, team1_id, team2_id,
	score1, score2, status, game_date, created_at, updated_at`

func scanGame(row interface{ Scan(...interface{}) error }) (*models.Game, error) {
	g := &models.Game{}
	err := row.Scan(
		&g.ID, &g.TournamentID, &g.Player1ID, &g.Player2ID, &g.Team1ID, &g.Team2ID,
		&g.Score1, &g.Score2, &g.Status, &g.GameDate, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO games
			(tournament_id, player1_id, player2_id, team1_id, team2_id, score1, score2, status, game_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		game.TournamentID, game.Player1ID, game.Player2ID, game.Team1ID, game.Team2ID,
		game.Score1, game.Score2, game.Status, game.GameDate,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)

	return r.handleGameError(err)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT` + gameColumns + ` FROM games WHERE id = $1`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrGameNotFound) {
		return nil, fmt.Errorf("failed to scan game by id %d: %w", id, err)
	}
	return game, err
}

func (r *postgresGameRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + gameColumns + ` FROM games WHERE id = $1 FOR UPDATE`
	game, err := scanGame(executor.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrGameNotFound) {
		return nil, fmt.Errorf("failed to scan game by id %d for update: %w", id, err)
	}
	return game, err
}

func (r *postgresGameRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, status *models.GameStatus) ([]*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + gameColumns + ` FROM games WHERE tournament_id = $1`
	args := []interface{}{tournamentID}

	if status != nil {
		query += " AND status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY id ASC"

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		g, scanErr := scanGame(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", scanErr)
		}
		games = append(games, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game rows iteration: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id int, score1, score2 int, status models.GameStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE games SET score1 = $1, score2 = $2, status = $3, updated_at = NOW() WHERE id = $4`

	result, err := executor.ExecContext(ctx, query, score1, score2, status, id)
	if err != nil {
		return r.handleGameError(err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM games WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM games WHERE tournament_id = $1`

	_, err := executor.ExecContext(ctx, query, tournamentID)
	return err
}

func (r *postgresGameRepository) handleGameError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "games_tournament_id_fkey":
			return ErrGameTournamentInvalid
		case "games_player1_id_fkey", "games_player2_id_fkey",
			"games_team1_id_fkey", "games_team2_id_fkey":
			return ErrGameParticipantInvalid
		}
	}
	return err
}
