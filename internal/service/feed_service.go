package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedPage is one page of post projections.
type FeedPage = pagination.Page[PostView]

// GroupFeed is a group with one page of its posts.
type GroupFeed struct {
	Group GroupView `json:"group"`
	Page  FeedPage  `json:"page_obj"`
}

// ProfileFeed is an author with one page of their posts.
type ProfileFeed struct {
	Author         AuthorView `json:"author"`
	PostsCount     int64      `json:"posts_count"`
	FollowersCount int64      `json:"followers_count"`
	FollowingCount int64      `json:"following_count"`
	// Following is true only when an authenticated viewer follows the author.
	Following bool     `json:"following"`
	Page      FeedPage `json:"page_obj"`
}

// FeedService computes which posts a reader sees.
type FeedService struct {
	posts     repository.PostRepository
	groups    repository.GroupRepository
	users     repository.UserRepository
	follows   repository.FollowRepository
	paginator pagination.Paginator
}

func NewFeedService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	pageSize int,
) *FeedService {
	return &FeedService{
		posts:     posts,
		groups:    groups,
		users:     users,
		follows:   follows,
		paginator: pagination.New(pageSize),
	}
}

// GlobalFeed returns every post, newest first.
func (s *FeedService) GlobalFeed(ctx context.Context, rawPage string) (page FeedPage, err error) {
	defer observability.TrackFeed("global")()
	ctx, span := observability.StartSpan(ctx, "FeedService", "GlobalFeed", attribute.String("page", rawPage))
	defer func() { observability.EndSpan(span, err) }()

	return s.fetch(ctx, rawPage, s.posts.Count, s.posts.List)
}

// GroupFeed returns the posts of the group with slug.
func (s *FeedService) GroupFeed(ctx context.Context, slug, rawPage string) (feed *GroupFeed, err error) {
	defer observability.TrackFeed("group")()
	ctx, span := observability.StartSpan(ctx, "FeedService", "GroupFeed", attribute.String("slug", slug))
	defer func() { observability.EndSpan(span, err) }()

	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	page, err := s.fetch(ctx, rawPage,
		func(ctx context.Context) (int64, error) { return s.posts.CountByGroup(ctx, group.ID) },
		func(ctx context.Context, limit, offset int) ([]*models.Post, error) {
			return s.posts.ListByGroup(ctx, group.ID, limit, offset)
		},
	)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: *NewGroupView(group), Page: page}, nil
}

// ProfileFeed returns the posts of the user with username. viewerID is 0 for anonymous readers.
func (s *FeedService) ProfileFeed(ctx context.Context, username, rawPage string, viewerID uint) (feed *ProfileFeed, err error) {
	defer observability.TrackFeed("profile")()
	ctx, span := observability.StartSpan(ctx, "FeedService", "ProfileFeed", attribute.String("username", username))
	defer func() { observability.EndSpan(span, err) }()

	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	page, err := s.fetch(ctx, rawPage,
		func(ctx context.Context) (int64, error) { return s.posts.CountByAuthor(ctx, author.ID) },
		func(ctx context.Context, limit, offset int) ([]*models.Post, error) {
			return s.posts.ListByAuthor(ctx, author.ID, limit, offset)
		},
	)
	if err != nil {
		return nil, err
	}

	feed = &ProfileFeed{
		Author:     NewAuthorView(*author),
		PostsCount: page.Count,
		Page:       page,
	}
	if feed.FollowersCount, err = s.follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if feed.FollowingCount, err = s.follows.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	if viewerID != 0 && viewerID != author.ID {
		if feed.Following, err = s.follows.Exists(ctx, viewerID, author.ID); err != nil {
			return nil, err
		}
	}
	return feed, nil
}

// FollowFeed returns posts by authors the viewer follows.
func (s *FeedService) FollowFeed(ctx context.Context, viewerID uint, rawPage string) (page FeedPage, err error) {
	defer observability.TrackFeed("follow")()
	ctx, span := observability.StartSpan(ctx, "FeedService", "FollowFeed")
	defer func() { observability.EndSpan(span, err) }()

	if viewerID == 0 {
		return FeedPage{}, models.NewUnauthenticatedError("Login required")
	}
	return s.fetch(ctx, rawPage,
		func(ctx context.Context) (int64, error) { return s.posts.CountByFollower(ctx, viewerID) },
		func(ctx context.Context, limit, offset int) ([]*models.Post, error) {
			return s.posts.ListByFollower(ctx, viewerID, limit, offset)
		},
	)
}

func (s *FeedService) fetch(
	ctx context.Context,
	rawPage string,
	count pagination.CountFunc,
	list pagination.ListFunc[*models.Post],
) (FeedPage, error) {
	page, err := pagination.Fetch(ctx, s.paginator, rawPage, count, list)
	if err != nil {
		return FeedPage{}, err
	}
	return pagination.NewPage(s.paginator, page.Number, page.Count, NewPostViews(page.Items)), nil
}
