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
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerInUse    = errors.New("player is referenced by games or standings")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context, limit, offset int) ([]models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	Delete(ctx context.Context, id int) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Player, error)
	GetByIDs(ctx context.Context, ids []int) (map[int]*models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (name)
		VALUES ($1)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, player.Name).
		Scan(&player.ID, &player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT id, name, created_at, updated_at FROM players WHERE id = $1`

	player := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&player.ID, &player.Name, &player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player by id %d: %w", id, err)
	}
	return player, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context, limit, offset int) ([]models.Player, error) {
	query := `SELECT id, name, created_at, updated_at FROM players ORDER BY id ASC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `UPDATE players SET name = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, player.Name, player.ID)
	if err != nil {
		return fmt.Errorf("failed to update player %d: %w", player.ID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM players WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrPlayerInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// ListByTournament returns the tournament roster via the standings table.
func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Player, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT p.id, p.name, p.created_at, p.updated_at
		FROM players p
		JOIN player_standings ps ON ps.player_id = p.id
		WHERE ps.tournament_id = $1
		ORDER BY p.id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan roster player row: %w", scanErr)
		}
		players = append(players, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during roster rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) GetByIDs(ctx context.Context, ids []int) (map[int]*models.Player, error) {
	players := make(map[int]*models.Player, len(ids))
	if len(ids) == 0 {
		return players, nil
	}

	query := `SELECT id, name, created_at, updated_at FROM players WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query players by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		players[p.ID] = &p
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}
