package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/aidosk/tournament-manager/models"
)

var tournamentRows = []string{
	"id", "name", "description", "start_date", "end_date", "status",
	"current_round", "total_rounds", "max_players", "logo_key", "created_at", "updated_at",
}

type TournamentRepositoryTestSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	repo TournamentRepository
}

func (s *TournamentRepositoryTestSuite) SetupTest() {
	mockDB, mock, err := sqlmock.New()
	require.NoError(s.T(), err)

	s.db = mockDB
	s.mock = mock
	s.repo = NewPostgresTournamentRepository(mockDB)
}

func (s *TournamentRepositoryTestSuite) TearDownTest() {
	s.db.Close()
}

func (s *TournamentRepositoryTestSuite) TestGetByIDForUpdate_LocksRow() {
	now := time.Now()
	s.mock.ExpectQuery(`(?s)SELECT .* FROM tournaments WHERE id = \$1 FOR UPDATE`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(tournamentRows).
			AddRow(3, "Spring Cup", nil, nil, nil, "in_progress", 1, 3, nil, nil, now, now))

	tournament, err := s.repo.GetByIDForUpdate(context.Background(), nil, 3)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusInProgress, tournament.Status)
	assert.Equal(s.T(), 1, tournament.CurrentRound)
	assert.Equal(s.T(), 3, tournament.TotalRounds)
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *TournamentRepositoryTestSuite) TestGetByID_PlainRead() {
	now := time.Now()
	// Anchored so a trailing FOR UPDATE clause would not match.
	s.mock.ExpectQuery(`(?s)SELECT .* FROM tournaments WHERE id = \$1$`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(tournamentRows).
			AddRow(3, "Spring Cup", nil, nil, nil, "in_progress", 1, 3, nil, nil, now, now))

	tournament, err := s.repo.GetByID(context.Background(), nil, 3)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusInProgress, tournament.Status)
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *TournamentRepositoryTestSuite) TestGetByID_NotFound() {
	s.mock.ExpectQuery(`(?s)SELECT .* FROM tournaments WHERE id = \$1`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := s.repo.GetByID(context.Background(), nil, 99)

	assert.ErrorIs(s.T(), err, ErrTournamentNotFound)
}

func (s *TournamentRepositoryTestSuite) TestUpdateState_WritesLifecycleFields() {
	start := time.Now()
	s.mock.ExpectExec(`UPDATE tournaments SET\s+status = \$1, current_round = \$2, start_date = \$3, end_date = \$4`).
		WithArgs(models.StatusInProgress, 1, start, nil, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.repo.UpdateState(context.Background(), nil, &models.Tournament{
		ID:           3,
		Status:       models.StatusInProgress,
		CurrentRound: 1,
		StartDate:    &start,
	})

	assert.NoError(s.T(), err)
}

func (s *TournamentRepositoryTestSuite) TestUpdateState_NotFound() {
	s.mock.ExpectExec(`UPDATE tournaments SET\s+status = \$1, current_round = \$2`).
		WithArgs(models.StatusCompleted, 3, nil, nil, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.repo.UpdateState(context.Background(), nil, &models.Tournament{
		ID:           99,
		Status:       models.StatusCompleted,
		CurrentRound: 3,
	})

	assert.ErrorIs(s.T(), err, ErrTournamentNotFound)
}

func (s *TournamentRepositoryTestSuite) TestList_FiltersByStatus() {
	now := time.Now()
	status := models.StatusUpcoming
	s.mock.ExpectQuery(`(?s)SELECT .* FROM tournaments WHERE 1=1 AND status = \$1 ORDER BY created_at DESC, id DESC LIMIT \$2`).
		WithArgs(status, 10).
		WillReturnRows(sqlmock.NewRows(tournamentRows).
			AddRow(1, "Autumn Open", nil, nil, nil, "upcoming", 0, 1, nil, nil, now, now))

	tournaments, err := s.repo.List(context.Background(), ListTournamentsFilter{Status: &status, Limit: 10})

	require.NoError(s.T(), err)
	require.Len(s.T(), tournaments, 1)
	assert.Equal(s.T(), "Autumn Open", tournaments[0].Name)
}

func (s *TournamentRepositoryTestSuite) TestExistsByID() {
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.repo.ExistsByID(context.Background(), 3)

	require.NoError(s.T(), err)
	assert.True(s.T(), exists)
}

func TestTournamentRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(TournamentRepositoryTestSuite))
}
