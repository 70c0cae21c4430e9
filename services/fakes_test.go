package services

import (
	"context"
	"sort"
	"time"

	"github.com/aidosk/tournament-manager/models"
	"github.com/aidosk/tournament-manager/repositories"
)

// In-memory repository fakes. The transaction executor arguments are
// ignored; transactional plumbing is exercised through sqlmock.

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
}

func (r *fakeTournamentRepo) add(t *models.Tournament) *models.Tournament {
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	} else if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	r.tournaments[t.ID] = t
	return t
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.add(t)
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	stored, ok := r.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	stored.Name = t.Name
	stored.Description = t.Description
	stored.StartDate = t.StartDate
	stored.EndDate = t.EndDate
	stored.MaxPlayers = t.MaxPlayers
	stored.TotalRounds = t.TotalRounds
	return nil
}

func (r *fakeTournamentRepo) UpdateState(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	stored, ok := r.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	stored.Status = t.Status
	stored.CurrentRound = t.CurrentRound
	stored.StartDate = t.StartDate
	stored.EndDate = t.EndDate
	return nil
}

func (r *fakeTournamentRepo) UpdateLogoKey(_ context.Context, id int, logoKey *string) error {
	stored, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	stored.LogoKey = logoKey
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) ExistsByID(_ context.Context, id int) (bool, error) {
	_, ok := r.tournaments[id]
	return ok, nil
}

type fakePlayerRepo struct {
	players map[int]*models.Player
	nextID  int
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[int]*models.Player), nextID: 1}
}

func (r *fakePlayerRepo) add(p *models.Player) *models.Player {
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	} else if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	r.players[p.ID] = p
	return p
}

func (r *fakePlayerRepo) Create(_ context.Context, p *models.Player) error {
	r.add(p)
	return nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlayerRepo) List(_ context.Context, _, _ int) ([]models.Player, error) {
	out := make([]models.Player, 0)
	for _, p := range r.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePlayerRepo) Update(_ context.Context, p *models.Player) error {
	stored, ok := r.players[p.ID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	stored.Name = p.Name
	return nil
}

func (r *fakePlayerRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(r.players, id)
	return nil
}

func (r *fakePlayerRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, _ int) ([]*models.Player, error) {
	out := make([]*models.Player, 0)
	for _, p := range r.players {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePlayerRepo) GetByIDs(_ context.Context, ids []int) (map[int]*models.Player, error) {
	out := make(map[int]*models.Player, len(ids))
	for _, id := range ids {
		if p, ok := r.players[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

type fakeTeamRepo struct {
	teams  map[int]*models.Team
	nextID int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team), nextID: 1}
}

func (r *fakeTeamRepo) add(t *models.Team) *models.Team {
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	} else if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	r.teams[t.ID] = t
	return t
}

func (r *fakeTeamRepo) Create(_ context.Context, t *models.Team) error {
	for _, existing := range r.teams {
		if existing.Name == t.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	r.add(t)
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTeamRepo) List(_ context.Context, _, _ int) ([]models.Team, error) {
	out := make([]models.Team, 0)
	for _, t := range r.teams {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTeamRepo) Update(_ context.Context, t *models.Team) error {
	stored, ok := r.teams[t.ID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	for _, existing := range r.teams {
		if existing.ID != t.ID && existing.Name == t.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	stored.Name = t.Name
	return nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

func (r *fakeTeamRepo) UpdateLogoKey(_ context.Context, id int, logoKey *string) error {
	stored, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	stored.LogoKey = logoKey
	return nil
}

func (r *fakeTeamRepo) GetByIDs(_ context.Context, ids []int) (map[int]*models.Team, error) {
	out := make(map[int]*models.Team, len(ids))
	for _, id := range ids {
		if t, ok := r.teams[id]; ok {
			cp := *t
			out[id] = &cp
		}
	}
	return out, nil
}

type fakeGameRepo struct {
	games  map[int]*models.Game
	nextID int
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[int]*models.Game), nextID: 1}
}

func (r *fakeGameRepo) add(g *models.Game) *models.Game {
	if g.ID == 0 {
		g.ID = r.nextID
		r.nextID++
	} else if g.ID >= r.nextID {
		r.nextID = g.ID + 1
	}
	r.games[g.ID] = g
	return g
}

func (r *fakeGameRepo) Create(_ context.Context, _ repositories.SQLExecutor, g *models.Game) error {
	r.add(g)
	return nil
}

func (r *fakeGameRepo) GetByID(_ context.Context, id int) (*models.Game, error) {
	g, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGameRepo) GetByIDForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int) (*models.Game, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeGameRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, status *models.GameStatus) ([]*models.Game, error) {
	out := make([]*models.Game, 0)
	for _, g := range r.games {
		if g.TournamentID != tournamentID {
			continue
		}
		if status != nil && g.Status != *status {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeGameRepo) UpdateScore(_ context.Context, _ repositories.SQLExecutor, id int, score1, score2 int, status models.GameStatus) error {
	g, ok := r.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.Score1 = &score1
	g.Score2 = &score2
	g.Status = status
	return nil
}

func (r *fakeGameRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	delete(r.games, id)
	return nil
}

func (r *fakeGameRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, g := range r.games {
		if g.TournamentID == tournamentID {
			delete(r.games, id)
		}
	}
	return nil
}

type standingKey struct {
	tournamentID int
	playerID     int
}

type fakeStandingRepo struct {
	standings map[standingKey]*models.PlayerStanding
	nextID    int
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{standings: make(map[standingKey]*models.PlayerStanding), nextID: 1}
}

func (r *fakeStandingRepo) Create(_ context.Context, _ repositories.SQLExecutor, s *models.PlayerStanding) error {
	key := standingKey{s.TournamentID, s.PlayerID}
	if _, ok := r.standings[key]; ok {
		return repositories.ErrStandingAlreadyExists
	}
	s.ID = r.nextID
	r.nextID++
	s.UpdatedAt = time.Now()
	r.standings[key] = s
	return nil
}

func (r *fakeStandingRepo) GetByTournamentAndPlayer(_ context.Context, _ repositories.SQLExecutor, tournamentID, playerID int) (*models.PlayerStanding, error) {
	s, ok := r.standings[standingKey{tournamentID, playerID}]
	if !ok {
		return nil, repositories.ErrStandingNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStandingRepo) GetOrCreate(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int) (*models.PlayerStanding, error) {
	if s, err := r.GetByTournamentAndPlayer(ctx, exec, tournamentID, playerID); err == nil {
		return s, nil
	}
	s := &models.PlayerStanding{TournamentID: tournamentID, PlayerID: playerID}
	if err := r.Create(ctx, exec, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *fakeStandingRepo) AddPoints(_ context.Context, _ repositories.SQLExecutor, tournamentID, playerID, delta int) error {
	s, ok := r.standings[standingKey{tournamentID, playerID}]
	if !ok {
		return repositories.ErrStandingNotFound
	}
	s.Points += delta
	return nil
}

func (r *fakeStandingRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.PlayerStanding, error) {
	out := make([]*models.PlayerStanding, 0)
	for _, s := range r.standings {
		if s.TournamentID == tournamentID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (r *fakeStandingRepo) CountByTournament(_ context.Context, tournamentID int) (int, error) {
	count := 0
	for _, s := range r.standings {
		if s.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeStandingRepo) Delete(_ context.Context, _ repositories.SQLExecutor, tournamentID, playerID int) error {
	key := standingKey{tournamentID, playerID}
	if _, ok := r.standings[key]; !ok {
		return repositories.ErrStandingNotFound
	}
	delete(r.standings, key)
	return nil
}

func (r *fakeStandingRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for key := range r.standings {
		if key.tournamentID == tournamentID {
			delete(r.standings, key)
		}
	}
	return nil
}
