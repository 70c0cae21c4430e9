package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/aidosk/tournament-manager/models"
)

type TournamentServiceTestSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock

	tournamentRepo *fakeTournamentRepo
	playerRepo     *fakePlayerRepo
	gameRepo       *fakeGameRepo
	standingRepo   *fakeStandingRepo

	service TournamentService
}

func (s *TournamentServiceTestSuite) SetupTest() {
	mockDB, mock, err := sqlmock.New()
	require.NoError(s.T(), err)

	s.db = mockDB
	s.mock = mock
	s.tournamentRepo = newFakeTournamentRepo()
	s.playerRepo = newFakePlayerRepo()
	s.gameRepo = newFakeGameRepo()
	s.standingRepo = newFakeStandingRepo()

	s.service = s.newService(false)
}

func (s *TournamentServiceTestSuite) newService(strict bool) TournamentService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTournamentService(
		s.db, s.tournamentRepo, s.playerRepo, s.gameRepo, s.standingRepo,
		nil, nil, logger, strict,
	)
}

func (s *TournamentServiceTestSuite) TearDownTest() {
	s.db.Close()
}

func (s *TournamentServiceTestSuite) seedTournament(status models.TournamentStatus, currentRound, totalRounds int) *models.Tournament {
	return s.tournamentRepo.add(&models.Tournament{
		Name:         "Spring Cup",
		Status:       status,
		CurrentRound: currentRound,
		TotalRounds:  totalRounds,
	})
}

func (s *TournamentServiceTestSuite) TestCreateTournament_Defaults() {
	tournament, err := s.service.CreateTournament(context.Background(), CreateTournamentInput{Name: "Autumn Open"})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusUpcoming, tournament.Status)
	assert.Equal(s.T(), 0, tournament.CurrentRound)
	assert.Equal(s.T(), 1, tournament.TotalRounds)
}

func (s *TournamentServiceTestSuite) TestCreateTournament_Validation() {
	ctx := context.Background()

	_, err := s.service.CreateTournament(ctx, CreateTournamentInput{})
	assert.ErrorIs(s.T(), err, ErrTournamentNameRequired)

	_, err = s.service.CreateTournament(ctx, CreateTournamentInput{Name: "X", TotalRounds: intPtr(0)})
	assert.ErrorIs(s.T(), err, ErrTournamentInvalidRounds)

	_, err = s.service.CreateTournament(ctx, CreateTournamentInput{Name: "X", MaxPlayers: intPtr(-1)})
	assert.ErrorIs(s.T(), err, ErrTournamentInvalidCapacity)

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err = s.service.CreateTournament(ctx, CreateTournamentInput{Name: "X", StartDate: &start, EndDate: &end})
	assert.ErrorIs(s.T(), err, ErrTournamentInvalidDates)
}

func (s *TournamentServiceTestSuite) TestStartTournament_Success() {
	seeded := s.seedTournament(models.StatusUpcoming, 0, 3)

	s.mock.ExpectBegin()
	s.mock.ExpectCommit()

	tournament, err := s.service.StartTournament(context.Background(), seeded.ID)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusInProgress, tournament.Status)
	assert.Equal(s.T(), 1, tournament.CurrentRound)
	assert.NotNil(s.T(), tournament.StartDate)
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *TournamentServiceTestSuite) TestStartTournament_InvalidTransition() {
	seeded := s.seedTournament(models.StatusInProgress, 1, 3)

	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	_, err := s.service.StartTournament(context.Background(), seeded.ID)

	assert.ErrorIs(s.T(), err, ErrInvalidTransition)
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *TournamentServiceTestSuite) TestStartTournament_NotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	_, err := s.service.StartTournament(context.Background(), 42)

	assert.ErrorIs(s.T(), err, ErrTournamentNotFound)
}

func (s *TournamentServiceTestSuite) TestAdvanceRound_Success() {
	seeded := s.seedTournament(models.StatusInProgress, 1, 3)

	s.mock.ExpectBegin()
	s.mock.ExpectCommit()

	tournament, err := s.service.AdvanceRound(context.Background(), seeded.ID)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, tournament.CurrentRound)
}

func (s *TournamentServiceTestSuite) TestAdvanceRound_RoundLimitReached() {
	seeded := s.seedTournament(models.StatusInProgress, 3, 3)

	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	_, err := s.service.AdvanceRound(context.Background(), seeded.ID)

	assert.ErrorIs(s.T(), err, ErrRoundLimitReached)
	assert.Equal(s.T(), 3, s.tournamentRepo.tournaments[seeded.ID].CurrentRound)
}

func (s *TournamentServiceTestSuite) TestAdvanceRound_NotInProgress() {
	seeded := s.seedTournament(models.StatusUpcoming, 0, 3)

	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	_, err := s.service.AdvanceRound(context.Background(), seeded.ID)

	assert.ErrorIs(s.T(), err, ErrInvalidTransition)
}

func (s *TournamentServiceTestSuite) TestCompleteTournament_FromUpcoming() {
	// Permissive mode: any non-terminal state can be completed directly.
	seeded := s.seedTournament(models.StatusUpcoming, 0, 3)

	s.mock.ExpectBegin()
	s.mock.ExpectCommit()

	tournament, err := s.service.CompleteTournament(context.Background(), seeded.ID)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusCompleted, tournament.Status)
	assert.NotNil(s.T(), tournament.EndDate)
}

func (s *TournamentServiceTestSuite) TestCompleteTournament_StrictRequiresInProgress() {
	seeded := s.seedTournament(models.StatusUpcoming, 0, 3)
	strictService := s.newService(true)

	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	_, err := strictService.CompleteTournament(context.Background(), seeded.ID)

	assert.ErrorIs(s.T(), err, ErrInvalidTransition)
}

func (s *TournamentServiceTestSuite) TestCompleteTournament_AlreadyTerminal() {
	seeded := s.seedTournament(models.StatusCancelled, 1, 3)

	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	_, err := s.service.CompleteTournament(context.Background(), seeded.ID)

	assert.ErrorIs(s.T(), err, ErrInvalidTransition)
}

func (s *TournamentServiceTestSuite) TestCancelTournament_Success() {
	seeded := s.seedTournament(models.StatusInProgress, 2, 3)

	s.mock.ExpectBegin()
	s.mock.ExpectCommit()

	tournament, err := s.service.CancelTournament(context.Background(), seeded.ID)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusCancelled, tournament.Status)
}

func (s *TournamentServiceTestSuite) TestCancelTournament_AlreadyCompleted() {
	seeded := s.seedTournament(models.StatusCompleted, 3, 3)

	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	_, err := s.service.CancelTournament(context.Background(), seeded.ID)

	assert.ErrorIs(s.T(), err, ErrInvalidTransition)
}

func (s *TournamentServiceTestSuite) TestUpdateDetails_TotalRoundsBelowCurrent() {
	seeded := s.seedTournament(models.StatusInProgress, 2, 3)

	_, err := s.service.UpdateTournamentDetails(context.Background(), seeded.ID, UpdateTournamentInput{
		TotalRounds: intPtr(1),
	})

	assert.ErrorIs(s.T(), err, ErrTournamentInvalidRounds)
}

func (s *TournamentServiceTestSuite) TestRegisterPlayer_Success() {
	seeded := s.seedTournament(models.StatusUpcoming, 0, 3)
	player := s.playerRepo.add(&models.Player{Name: "Alice"})

	standing, err := s.service.RegisterPlayer(context.Background(), seeded.ID, player.ID)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, standing.Points)
	assert.Equal(s.T(), player.ID, standing.PlayerID)
}

func (s *TournamentServiceTestSuite) TestRegisterPlayer_Duplicate() {
	seeded := s.seedTournament(models.StatusUpcoming, 0, 3)
	player := s.playerRepo.add(&models.Player{Name: "Alice"})

	_, err := s.service.RegisterPlayer(context.Background(), seeded.ID, player.ID)
	require.NoError(s.T(), err)

	_, err = s.service.RegisterPlayer(context.Background(), seeded.ID, player.ID)
	assert.ErrorIs(s.T(), err, ErrPlayerAlreadyRegistered)
}

func (s *TournamentServiceTestSuite) TestRegisterPlayer_TournamentFull() {
	seeded := s.tournamentRepo.add(&models.Tournament{
		Name:        "Tiny Cup",
		Status:      models.StatusUpcoming,
		TotalRounds: 1,
		MaxPlayers:  intPtr(1),
	})
	alice := s.playerRepo.add(&models.Player{Name: "Alice"})
	bob := s.playerRepo.add(&models.Player{Name: "Bob"})

	_, err := s.service.RegisterPlayer(context.Background(), seeded.ID, alice.ID)
	require.NoError(s.T(), err)

	_, err = s.service.RegisterPlayer(context.Background(), seeded.ID, bob.ID)
	assert.ErrorIs(s.T(), err, ErrTournamentFull)
}

func (s *TournamentServiceTestSuite) TestRegisterPlayer_TerminalTournament() {
	seeded := s.seedTournament(models.StatusCompleted, 3, 3)
	player := s.playerRepo.add(&models.Player{Name: "Alice"})

	_, err := s.service.RegisterPlayer(context.Background(), seeded.ID, player.ID)

	assert.ErrorIs(s.T(), err, ErrTournamentFinished)
}

func (s *TournamentServiceTestSuite) TestDeleteTournament_CascadesGamesAndStandings() {
	seeded := s.seedTournament(models.StatusInProgress, 1, 3)
	other := s.seedTournament(models.StatusUpcoming, 0, 1)
	alice := s.playerRepo.add(&models.Player{Name: "Alice"})

	_, err := s.service.RegisterPlayer(context.Background(), seeded.ID, alice.ID)
	require.NoError(s.T(), err)

	s.gameRepo.add(&models.Game{TournamentID: seeded.ID, Status: models.GameStatusScheduled})
	keptGame := s.gameRepo.add(&models.Game{TournamentID: other.ID, Status: models.GameStatusScheduled})

	s.mock.ExpectBegin()
	s.mock.ExpectCommit()

	require.NoError(s.T(), s.service.DeleteTournament(context.Background(), seeded.ID))

	_, err = s.service.GetTournamentByID(context.Background(), seeded.ID)
	assert.ErrorIs(s.T(), err, ErrTournamentNotFound)

	count, err := s.standingRepo.CountByTournament(context.Background(), seeded.ID)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), count)

	// The player itself and other tournaments' games survive.
	_, err = s.playerRepo.GetByID(context.Background(), alice.ID)
	assert.NoError(s.T(), err)
	_, err = s.gameRepo.GetByID(context.Background(), keptGame.ID)
	assert.NoError(s.T(), err)
}

func (s *TournamentServiceTestSuite) TestUploadLogo_UploaderUnavailable() {
	seeded := s.seedTournament(models.StatusUpcoming, 0, 1)

	_, err := s.service.UploadLogo(context.Background(), seeded.ID, "image/png", nil)

	assert.ErrorIs(s.T(), err, ErrUploaderUnavailable)
}

func TestTournamentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TournamentServiceTestSuite))
}
