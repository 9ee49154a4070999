package service

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalFeedPagination(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, s.db, "author")
	posts := testutil.CreatePosts(t, s.db, author, nil, 13)

	tests := []struct {
		name    string
		raw     string
		number  int
		items   int
		firstID uint
		hasNext bool
		hasPrev bool
	}{
		{"first page", "", 1, 10, posts[12].ID, true, false},
		{"second page", "2", 2, 3, posts[2].ID, false, true},
		{"past the end", "99", 2, 3, posts[2].ID, false, true},
		{"garbage", "abc", 1, 10, posts[12].ID, true, false},
		{"last", "last", 2, 3, posts[2].ID, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.feeds.GlobalFeed(ctx, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.number, page.Number)
			assert.EqualValues(t, 13, page.Count)
			assert.Equal(t, 2, page.NumPages)
			require.Len(t, page.Items, tt.items)
			assert.Equal(t, tt.firstID, page.Items[0].ID)
			assert.Equal(t, tt.hasNext, page.HasNext)
			assert.Equal(t, tt.hasPrev, page.HasPrevious)
		})
	}
}

func TestGroupFeed(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, s.db, "author")
	cats := testutil.CreateGroup(t, s.db, "cats")
	dogs := testutil.CreateGroup(t, s.db, "dogs")
	testutil.CreatePosts(t, s.db, author, cats, 3)
	testutil.CreatePosts(t, s.db, author, dogs, 2)

	feed, err := s.feeds.GroupFeed(ctx, "cats", "1")
	require.NoError(t, err)
	assert.Equal(t, "cats", feed.Group.Slug)
	assert.EqualValues(t, 3, feed.Page.Count)
	for _, p := range feed.Page.Items {
		require.NotNil(t, p.Group)
		assert.Equal(t, "cats", p.Group.Slug)
	}

	_, err = s.feeds.GroupFeed(ctx, "birds", "1")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestProfileFeed(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, s.db, "author")
	reader := testutil.CreateUser(t, s.db, "reader")
	testutil.CreatePosts(t, s.db, author, nil, 4)
	_, err := s.follows.Follow(ctx, reader.ID, "author")
	require.NoError(t, err)

	feed, err := s.feeds.ProfileFeed(ctx, "author", "", reader.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, feed.PostsCount)
	assert.EqualValues(t, 1, feed.FollowersCount)
	assert.True(t, feed.Following)

	anon, err := s.feeds.ProfileFeed(ctx, "author", "", 0)
	require.NoError(t, err)
	assert.False(t, anon.Following)

	_, err = s.feeds.ProfileFeed(ctx, "nobody", "", 0)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestFollowFeedOnlyShowsFollowedAuthors(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	reader := testutil.CreateUser(t, s.db, "reader")
	followed := testutil.CreateUser(t, s.db, "followed")
	stranger := testutil.CreateUser(t, s.db, "stranger")
	testutil.CreatePosts(t, s.db, followed, nil, 2)
	testutil.CreatePosts(t, s.db, stranger, nil, 2)
	_, err := s.follows.Follow(ctx, reader.ID, "followed")
	require.NoError(t, err)

	page, err := s.feeds.FollowFeed(ctx, reader.ID, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, p := range page.Items {
		assert.Equal(t, "followed", p.Author.Username)
	}

	empty, err := s.feeds.FollowFeed(ctx, stranger.ID, "")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 1, empty.Number)

	_, err = s.feeds.FollowFeed(ctx, 0, "")
	assert.True(t, models.IsCode(err, models.CodeUnauthenticated))
}
