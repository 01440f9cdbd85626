package service

import (
	"context"

	"lostfound/internal/models"
	"lostfound/internal/repository"
)

type FollowService interface {
	Follow(ctx context.Context, userID, itemID string) error
	Unfollow(ctx context.Context, userID, itemID string) error
	IsFollowing(ctx context.Context, userID, itemID string) (bool, error)
	ListFollowedItems(ctx context.Context, userID string) ([]models.Item, error)
}

type followService struct {
	followRepo repository.FollowRepository
	itemRepo   repository.ItemRepository
}

func NewFollowService(followRepo repository.FollowRepository, itemRepo repository.ItemRepository) FollowService {
	return &followService{
		followRepo: followRepo,
		itemRepo:   itemRepo,
	}
}

// Follow adds the edge. A missing item is NotFound and an existing edge is a
// Conflict, whichever route the request came through.
func (s *followService) Follow(ctx context.Context, userID, itemID string) error {
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		return err
	}

	if err := s.followRepo.Follow(ctx, userID, itemID); err != nil {
		return err
	}

	followsCreatedTotal.Inc()
	return nil
}

func (s *followService) Unfollow(ctx context.Context, userID, itemID string) error {
	return s.followRepo.Unfollow(ctx, userID, itemID)
}

func (s *followService) IsFollowing(ctx context.Context, userID, itemID string) (bool, error) {
	return s.followRepo.IsFollowing(ctx, userID, itemID)
}

func (s *followService) ListFollowedItems(ctx context.Context, userID string) ([]models.Item, error) {
	return s.followRepo.ListFollowedItems(ctx, userID)
}
