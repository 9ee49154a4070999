package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetGroups handles GET /groups/
// @Summary List groups
// @Tags groups
// @Produce json
// @Success 200 {object} object{groups=[]service.GroupView}
// @Router /groups/ [get]
func (s *Server) GetGroups(c *fiber.Ctx) error {
	groups, err := s.groupService.ListGroups(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"groups": groups})
}

// GetFeatureFlags handles GET /flags/ and evaluates every flag for the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := s.optionalUserID(c)
	return c.JSON(fiber.Map{
		"flags": s.featureFlags.Snapshot(userID),
	})
}
