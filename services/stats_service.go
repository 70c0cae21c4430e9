package services

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/aidosk/tournament-manager/models"
	"github.com/aidosk/tournament-manager/repositories"
)

const recentGamesLimit = 5

// PlayerStatLine is one row of the per-player standings table. Points come
// from the accumulated standing, the remaining columns are derived from
// completed games.
type PlayerStatLine struct {
	PlayerID     int    `json:"player_id"`
	Name         string `json:"name"`
	Points       int    `json:"points"`
	GamesPlayed  int    `json:"games_played"`
	Wins         int    `json:"wins"`
	Draws        int    `json:"draws"`
	Losses       int    `json:"losses"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
}

// TeamStatLine is one row of the per-team table. Teams carry no standing
// rows, so their points are derived from game results alone.
type TeamStatLine struct {
	TeamID       int    `json:"team_id"`
	Name         string `json:"name"`
	Points       int    `json:"points"`
	GamesPlayed  int    `json:"games_played"`
	Wins         int    `json:"wins"`
	Draws        int    `json:"draws"`
	Losses       int    `json:"losses"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
}

type TournamentStats struct {
	TournamentID   int                     `json:"tournament_id"`
	Status         models.TournamentStatus `json:"status"`
	CurrentRound   int                     `json:"current_round"`
	TotalRounds    int                     `json:"total_rounds"`
	TotalGames     int                     `json:"total_games"`
	CompletedGames int                     `json:"completed_games"`
	PlayerStats    []PlayerStatLine        `json:"player_stats"`
	TeamStats      []TeamStatLine          `json:"team_stats"`
	RecentGames    []*models.Game          `json:"recent_games"`
}

type StatsService interface {
	// ComputeStats builds the full standings view for a tournament from a
	// consistent snapshot of its games and standings.
	ComputeStats(ctx context.Context, tournamentID int) (*TournamentStats, error)
}

type statsService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	gameRepo       repositories.GameRepository
	standingRepo   repositories.StandingRepository
	playerRepo     repositories.PlayerRepository
	teamRepo       repositories.TeamRepository
	logger         *slog.Logger
}

func NewStatsService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	gameRepo repositories.GameRepository,
	standingRepo repositories.StandingRepository,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	logger *slog.Logger,
) StatsService {
	return &statsService{
		db:             db,
		tournamentRepo: tournamentRepo,
		gameRepo:       gameRepo,
		standingRepo:   standingRepo,
		playerRepo:     playerRepo,
		teamRepo:       teamRepo,
		logger:         logger,
	}
}

func (s *statsService) ComputeStats(ctx context.Context, tournamentID int) (*TournamentStats, error) {
	var (
		tournament *models.Tournament
		games      []*models.Game
		standings  []*models.PlayerStanding
	)

	// Snapshot the tournament, its games and standings in one transaction so
	// a concurrent score write cannot split the view. Plain reads only; the
	// snapshot must not queue behind score writers.
	err := withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		t, err := s.tournamentRepo.GetByID(ctx, tx, tournamentID)
		if err != nil {
			return translateTournamentRepoError(err)
		}
		tournament = t

		if games, err = s.gameRepo.ListByTournament(ctx, tx, tournamentID, nil); err != nil {
			return err
		}
		standings, err = s.standingRepo.ListByTournament(ctx, tx, tournamentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	playerLines, teamLines, completed := aggregateGames(games, standings)

	// Name resolution happens outside the snapshot; the referenced rows are
	// protected by foreign keys.
	playerIDs := make([]int, 0, len(playerLines))
	for id := range playerLines {
		playerIDs = append(playerIDs, id)
	}
	teamIDs := make([]int, 0, len(teamLines))
	for id := range teamLines {
		teamIDs = append(teamIDs, id)
	}

	var (
		players map[int]*models.Player
		teams   map[int]*models.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.GetByIDs(gctx, playerIDs)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.GetByIDs(gctx, teamIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &TournamentStats{
		TournamentID:   tournamentID,
		Status:         tournament.Status,
		CurrentRound:   tournament.CurrentRound,
		TotalRounds:    tournament.TotalRounds,
		TotalGames:     len(games),
		CompletedGames: completed,
		PlayerStats:    make([]PlayerStatLine, 0, len(playerLines)),
		TeamStats:      make([]TeamStatLine, 0, len(teamLines)),
		RecentGames:    recentCompletedGames(games),
	}

	for id, line := range playerLines {
		if p, ok := players[id]; ok {
			line.Name = p.Name
		} else {
			// The player row disappeared between snapshot and resolution.
			s.logger.Warn("skipping stats line for missing player",
				slog.Int("tournament_id", tournamentID), slog.Int("player_id", id))
			continue
		}
		stats.PlayerStats = append(stats.PlayerStats, *line)
	}
	for id, line := range teamLines {
		if t, ok := teams[id]; ok {
			line.Name = t.Name
		} else {
			s.logger.Warn("skipping stats line for missing team",
				slog.Int("tournament_id", tournamentID), slog.Int("team_id", id))
			continue
		}
		stats.TeamStats = append(stats.TeamStats, *line)
	}

	sort.Slice(stats.PlayerStats, func(i, j int) bool {
		a, b := stats.PlayerStats[i], stats.PlayerStats[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.PlayerID < b.PlayerID
	})
	sort.Slice(stats.TeamStats, func(i, j int) bool {
		a, b := stats.TeamStats[i], stats.TeamStats[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.TeamID < b.TeamID
	})

	return stats, nil
}

// aggregateGames folds completed games into per-player and per-team lines.
// Every registered player gets a line even without games; player points are
// taken from standings, team points are derived from results.
func aggregateGames(games []*models.Game, standings []*models.PlayerStanding) (map[int]*PlayerStatLine, map[int]*TeamStatLine, int) {
	playerLines := make(map[int]*PlayerStatLine)
	teamLines := make(map[int]*TeamStatLine)

	for _, st := range standings {
		playerLines[st.PlayerID] = &PlayerStatLine{PlayerID: st.PlayerID, Points: st.Points}
	}

	playerLine := func(id int) *PlayerStatLine {
		line, ok := playerLines[id]
		if !ok {
			line = &PlayerStatLine{PlayerID: id}
			playerLines[id] = line
		}
		return line
	}
	teamLine := func(id int) *TeamStatLine {
		line, ok := teamLines[id]
		if !ok {
			line = &TeamStatLine{TeamID: id}
			teamLines[id] = line
		}
		return line
	}

	completed := 0
	for _, g := range games {
		if g.Status != models.GameStatusCompleted || g.Score1 == nil || g.Score2 == nil {
			continue
		}
		completed++
		s1, s2 := *g.Score1, *g.Score2

		if g.HasPlayerPair() {
			p1, p2 := playerLine(*g.Player1ID), playerLine(*g.Player2ID)
			p1.GamesPlayed++
			p2.GamesPlayed++
			p1.GoalsFor += s1
			p1.GoalsAgainst += s2
			p2.GoalsFor += s2
			p2.GoalsAgainst += s1
			switch {
			case s1 > s2:
				p1.Wins++
				p2.Losses++
			case s2 > s1:
				p2.Wins++
				p1.Losses++
			default:
				p1.Draws++
				p2.Draws++
			}
		}

		if g.HasTeamPair() {
			t1, t2 := teamLine(*g.Team1ID), teamLine(*g.Team2ID)
			t1.GamesPlayed++
			t2.GamesPlayed++
			t1.GoalsFor += s1
			t1.GoalsAgainst += s2
			t2.GoalsFor += s2
			t2.GoalsAgainst += s1
			switch {
			case s1 > s2:
				t1.Wins++
				t2.Losses++
				t1.Points += pointsForWin
			case s2 > s1:
				t2.Wins++
				t1.Losses++
				t2.Points += pointsForWin
			default:
				t1.Draws++
				t2.Draws++
				t1.Points += pointsForDraw
				t2.Points += pointsForDraw
			}
		}
	}

	return playerLines, teamLines, completed
}

// recentCompletedGames returns the newest completed games, ordered by game
// date descending with undated games last.
func recentCompletedGames(games []*models.Game) []*models.Game {
	recent := make([]*models.Game, 0, recentGamesLimit)
	for _, g := range games {
		if g.Status == models.GameStatusCompleted {
			recent = append(recent, g)
		}
	}

	sort.SliceStable(recent, func(i, j int) bool {
		a, b := recent[i], recent[j]
		switch {
		case a.GameDate != nil && b.GameDate != nil:
			if !a.GameDate.Equal(*b.GameDate) {
				return a.GameDate.After(*b.GameDate)
			}
			return a.ID > b.ID
		case a.GameDate != nil:
			return true
		case b.GameDate != nil:
			return false
		default:
			return a.ID > b.ID
		}
	})

	if len(recent) > recentGamesLimit {
		recent = recent[:recentGamesLimit]
	}
	return recent
}
