package server

import (
	"github.com/gofiber/fiber/v2"
)

// ProfileFollow handles GET /profile/:username/follow/
// @Summary Follow an author
// @Description Idempotent. Following yourself changes nothing.
// @Tags follows
// @Param username path string true "Username"
// @Success 302 "Redirect to /profile/{username}/"
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/follow/ [get]
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	username := pathParam(c, "username")
	if _, err := s.followService.Follow(c.UserContext(), currentUserID(c), username); err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(profilePath(username), fiber.StatusFound)
}

// ProfileUnfollow handles GET /profile/:username/unfollow/
// @Summary Unfollow an author
// @Tags follows
// @Param username path string true "Username"
// @Success 302 "Redirect to /profile/{username}/"
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/unfollow/ [get]
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	username := pathParam(c, "username")
	if _, err := s.followService.Unfollow(c.UserContext(), currentUserID(c), username); err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(profilePath(username), fiber.StatusFound)
}

// Followers handles GET /profile/:username/followers/
func (s *Server) Followers(c *fiber.Ctx) error {
	users, err := s.followService.Followers(c.UserContext(), pathParam(c, "username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"username": pathParam(c, "username"), "followers": users})
}

// Following handles GET /profile/:username/following/
func (s *Server) Following(c *fiber.Ctx) error {
	users, err := s.followService.Following(c.UserContext(), pathParam(c, "username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"username": pathParam(c, "username"), "following": users})
}
