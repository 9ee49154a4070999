package service

import (
	"testing"

	"yatube/internal/config"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"gorm.io/gorm"
)

type testServices struct {
	db       *gorm.DB
	posts    *PostService
	comments *CommentService
	follows  *FollowService
	feeds    *FeedService
	groups   *GroupService
	images   *ImageService
}

func newTestServices(t *testing.T) testServices {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	postRepo := repository.NewPostRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	images := NewImageService(&config.Config{MediaRoot: t.TempDir(), ImageMaxUpload: 1, ImageMaxSize: 64})

	return testServices{
		db:       db,
		posts:    NewPostService(postRepo, groupRepo, commentRepo, images),
		comments: NewCommentService(commentRepo, postRepo),
		follows:  NewFollowService(followRepo, userRepo),
		feeds:    NewFeedService(postRepo, groupRepo, userRepo, followRepo, 10),
		groups:   NewGroupService(groupRepo),
		images:   images,
	}
}
