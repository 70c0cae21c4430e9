package services

import (
	"context"
	"errors"
	"strings"

	"github.com/aidosk/tournament-manager/models"
	"github.com/aidosk/tournament-manager/repositories"
)

type PlayerService interface {
	CreatePlayer(ctx context.Context, name string) (*models.Player, error)
	GetPlayerByID(ctx context.Context, id int) (*models.Player, error)
	ListPlayers(ctx context.Context, limit, offset int) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, id int, name string) (*models.Player, error)
	DeletePlayer(ctx context.Context, id int) error
}

type playerService struct {
	playerRepo repositories.PlayerRepository
}

func NewPlayerService(playerRepo repositories.PlayerRepository) PlayerService {
	return &playerService{playerRepo: playerRepo}
}

func translatePlayerRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerInUse):
		return ErrPlayerInUse
	}
	return err
}

func (s *playerService) CreatePlayer(ctx context.Context, name string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}

	player := &models.Player{Name: name}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

func (s *playerService) GetPlayerByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translatePlayerRepoError(err)
	}
	return player, nil
}

func (s *playerService) ListPlayers(ctx context.Context, limit, offset int) ([]models.Player, error) {
	return s.playerRepo.List(ctx, limit, offset)
}

func (s *playerService) UpdatePlayer(ctx context.Context, id int, name string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}

	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translatePlayerRepoError(err)
	}

	player.Name = name
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, translatePlayerRepoError(err)
	}
	return player, nil
}

// DeletePlayer removes a player. Players referenced by games or tournament
// standings cannot be deleted.
func (s *playerService) DeletePlayer(ctx context.Context, id int) error {
	return translatePlayerRepoError(s.playerRepo.Delete(ctx, id))
}
