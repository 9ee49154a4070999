package service

import (
	"context"
	"log/slog"
	"strconv"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

// FollowService maintains the follow graph. Both directions are idempotent.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow makes followerID follow the user named username. Following oneself
// or an author already followed changes nothing.
func (s *FollowService) Follow(ctx context.Context, followerID uint, username string) (bool, error) {
	if followerID == 0 {
		return false, models.NewUnauthenticatedError("Login required")
	}
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if author.ID == followerID {
		s.record(ctx, "follow", false, author.ID)
		return false, nil
	}

	created, err := s.followRepo.Create(ctx, followerID, author.ID)
	if err != nil {
		return false, err
	}
	s.record(ctx, "follow", created, author.ID)
	return created, nil
}

// Unfollow removes the edge from followerID to username if it exists.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, username string) (bool, error) {
	if followerID == 0 {
		return false, models.NewUnauthenticatedError("Login required")
	}
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}

	removed, err := s.followRepo.Delete(ctx, followerID, author.ID)
	if err != nil {
		return false, err
	}
	s.record(ctx, "unfollow", removed, author.ID)
	return removed, nil
}

// Followers lists the users following the user named username.
func (s *FollowService) Followers(ctx context.Context, username string) ([]AuthorView, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.followRepo.FollowersOf(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	return authorViews(users), nil
}

// Following lists the authors the user named username follows.
func (s *FollowService) Following(ctx context.Context, username string) ([]AuthorView, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.followRepo.FollowingOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return authorViews(users), nil
}

func (s *FollowService) record(ctx context.Context, action string, changed bool, authorID uint) {
	observability.FollowChanges.WithLabelValues(action, strconv.FormatBool(changed)).Inc()
	middleware.Logger.InfoContext(ctx, "follow graph "+action,
		slog.Uint64("author_id", uint64(authorID)),
		slog.Bool("changed", changed),
	)
}

func authorViews(users []models.User) []AuthorView {
	out := make([]AuthorView, 0, len(users))
	for _, u := range users {
		out = append(out, NewAuthorView(u))
	}
	return out
}
