package server

import (
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /posts/:id/comment/
// @Summary Comment on a post
// @Description Adds a comment and redirects back to the post. Empty comments are dropped.
// @Tags posts
// @Accept x-www-form-urlencoded
// @Param id path int true "Post ID"
// @Param text formData string true "Comment text"
// @Success 302 "Redirect to /posts/{id}/"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comment/ [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `form:"text" json:"text"`
	}
	_ = c.BodyParser(&req)

	_, err = s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		AuthorID: currentUserID(c),
		PostID:   id,
		Text:     req.Text,
	})
	if err != nil {
		if !models.IsCode(err, models.CodeValidation) {
			return s.respondError(c, err)
		}
		middleware.Logger.DebugContext(c.UserContext(), "comment rejected",
			slog.Uint64("post_id", uint64(id)),
			slog.String("reason", err.Error()),
		)
	}
	return c.Redirect(postPath(id), fiber.StatusFound)
}
