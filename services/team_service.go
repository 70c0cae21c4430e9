package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aidosk/tournament-manager/models"
	"github.com/aidosk/tournament-manager/repositories"
	"github.com/aidosk/tournament-manager/storage"
)

type TeamService interface {
	CreateTeam(ctx context.Context, name string) (*models.Team, error)
	GetTeamByID(ctx context.Context, id int) (*models.Team, error)
	ListTeams(ctx context.Context, limit, offset int) ([]models.Team, error)
	UpdateTeam(ctx context.Context, id int, name string) (*models.Team, error)
	DeleteTeam(ctx context.Context, id int) error
	UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Team, error)
	RemoveLogo(ctx context.Context, id int) error
}

type teamService struct {
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewTeamService(teamRepo repositories.TeamRepository, uploader storage.FileUploader, logger *slog.Logger) TeamService {
	return &teamService{teamRepo: teamRepo, uploader: uploader, logger: logger}
}

func translateTeamRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrTeamInUse):
		return ErrTeamInUse
	}
	return err
}

func (s *teamService) CreateTeam(ctx context.Context, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team := &models.Team{Name: name}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, translateTeamRepoError(err)
	}
	return team, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateTeamRepoError(err)
	}
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context, limit, offset int) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		populateTeamLogoURL(&teams[i], s.uploader)
	}
	return teams, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, id int, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateTeamRepoError(err)
	}

	team.Name = name
	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, translateTeamRepoError(err)
	}
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, id int) error {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return translateTeamRepoError(err)
	}

	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return translateTeamRepoError(err)
	}

	if team.LogoKey != nil && s.uploader != nil {
		if delErr := s.uploader.Delete(ctx, *team.LogoKey); delErr != nil {
			s.logger.Warn("failed to delete team logo object",
				slog.Int("team_id", id), slog.Any("error", delErr))
		}
	}
	return nil
}

func (s *teamService) UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrUploaderUnavailable
	}

	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateTeamRepoError(err)
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("teams/%d/logo%s", id, ext)
	if team.LogoKey != nil && *team.LogoKey != key {
		if delErr := s.uploader.Delete(ctx, *team.LogoKey); delErr != nil {
			s.logger.Warn("failed to delete previous team logo",
				slog.Int("team_id", id), slog.Any("error", delErr))
		}
	}

	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, err
	}
	if err := s.teamRepo.UpdateLogoKey(ctx, id, &key); err != nil {
		return nil, translateTeamRepoError(err)
	}

	team.LogoKey = &key
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) RemoveLogo(ctx context.Context, id int) error {
	if s.uploader == nil {
		return ErrUploaderUnavailable
	}

	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return translateTeamRepoError(err)
	}
	if team.LogoKey == nil {
		return nil
	}

	if err := s.uploader.Delete(ctx, *team.LogoKey); err != nil {
		return err
	}
	return translateTeamRepoError(s.teamRepo.UpdateLogoKey(ctx, id, nil))
}
