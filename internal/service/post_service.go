package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
)

const maxPostTextLen = 50000

// PostService owns post writes and the post detail page.
type PostService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	commentRepo repository.CommentRepository
	images      *ImageService
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    *UploadImageInput
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Text    string
	GroupID *uint
	Image   *UploadImageInput
	// ClearImage drops the current image when no new one is uploaded.
	ClearImage bool
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// PostDetail is a post with its comments, oldest first.
type PostDetail struct {
	Post             PostView      `json:"post"`
	AuthorPostsCount int64         `json:"author_posts_count"`
	Comments         []CommentView `json:"comments"`
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	commentRepo repository.CommentRepository,
	images *ImageService,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		commentRepo: commentRepo,
		images:      images,
	}
}

// GetPost loads a post with author and group.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// GetPostDetail loads a post, its comments and the author's post count.
func (s *PostService) GetPostDetail(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Post:             NewPostView(post),
		AuthorPostsCount: count,
		Comments:         NewCommentViews(comments),
	}, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	text, err := s.validate(ctx, in.Text, in.GroupID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     text,
		AuthorID: in.AuthorID,
		GroupID:  in.GroupID,
	}
	if in.Image != nil {
		if post.Image, err = s.images.Save(ctx, *in.Image); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.removeImage(ctx, post.Image)
		return nil, err
	}
	return post, nil
}

// UpdatePost applies an edit. Only the author may edit; anyone else gets a
// Forbidden error and nothing is written.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	text, err := s.validate(ctx, in.Text, in.GroupID)
	if err != nil {
		return nil, err
	}

	oldImage := post.Image
	post.Text = text
	post.GroupID = in.GroupID
	switch {
	case in.Image != nil:
		if post.Image, err = s.images.Save(ctx, *in.Image); err != nil {
			return nil, err
		}
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			s.removeImage(ctx, post.Image)
		}
		return nil, err
	}
	if post.Image != oldImage {
		s.removeImage(ctx, oldImage)
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes the author's own post together with its comments.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.AuthorID != in.UserID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}
	s.removeImage(ctx, post.Image)
	return nil
}

func (s *PostService) validate(ctx context.Context, text string, groupID *uint) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewFieldError("text", "This field is required.")
	}
	if utf8.RuneCountInString(text) > maxPostTextLen {
		return "", models.NewFieldError("text", "Text too long (max 50000 characters).")
	}
	if groupID != nil {
		if _, err := s.groupRepo.GetByID(ctx, *groupID); err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return "", models.NewFieldError("group", "Select a valid choice. That choice is not one of the available choices.")
			}
			return "", err
		}
	}
	return text, nil
}

func (s *PostService) removeImage(ctx context.Context, rel string) {
	if rel == "" || s.images == nil {
		return
	}
	if err := s.images.Remove(rel); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove post image",
			slog.String("path", rel),
			slog.String("error", err.Error()),
		)
	}
}
