package service

import (
	"time"

	"yatube/internal/models"
)

// MediaURLPrefix is where stored post images are served.
const MediaURLPrefix = "/media/"

// AuthorView is the public part of a user.
type AuthorView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// GroupView is a group as shown alongside its posts.
type GroupView struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// PostView is the read-only projection of a post used by every feed.
type PostView struct {
	ID            uint       `json:"id"`
	Text          string     `json:"text"`
	Author        AuthorView `json:"author"`
	Group         *GroupView `json:"group"`
	Image         string     `json:"image"`
	CreatedAt     time.Time  `json:"created_at"`
	CommentsCount int        `json:"comments_count"`
}

// CommentView is a comment as shown on a post page.
type CommentView struct {
	ID        uint       `json:"id"`
	Text      string     `json:"text"`
	Author    AuthorView `json:"author"`
	CreatedAt time.Time  `json:"created"`
}

// NewAuthorView projects a user.
func NewAuthorView(u models.User) AuthorView {
	return AuthorView{ID: u.ID, Username: u.Username}
}

// NewGroupView projects a group; nil stays nil.
func NewGroupView(g *models.Group) *GroupView {
	if g == nil {
		return nil
	}
	return &GroupView{ID: g.ID, Title: g.Title, Slug: g.Slug, Description: g.Description}
}

// ImageURL turns a stored relative image path into its public URL.
func ImageURL(path string) string {
	if path == "" {
		return ""
	}
	return MediaURLPrefix + path
}

// NewPostView projects a post loaded with its author and group.
func NewPostView(p *models.Post) PostView {
	return PostView{
		ID:            p.ID,
		Text:          p.Text,
		Author:        NewAuthorView(p.Author),
		Group:         NewGroupView(p.Group),
		Image:         ImageURL(p.Image),
		CreatedAt:     p.CreatedAt,
		CommentsCount: p.CommentsCount,
	}
}

// NewPostViews projects a list of posts.
func NewPostViews(posts []*models.Post) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostView(p))
	}
	return out
}

// NewCommentViews projects a list of comments.
func NewCommentViews(comments []*models.Comment) []CommentView {
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentView{
			ID:        c.ID,
			Text:      c.Text,
			Author:    NewAuthorView(c.Author),
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}
