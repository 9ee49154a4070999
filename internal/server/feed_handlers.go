package server

import (
	"context"
	"encoding/json"
	"time"

	"yatube/internal/featureflags"
	"yatube/internal/pagination"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET /
// @Summary Global feed
// @Description Every post, newest first. Pages are cached for INDEX_CACHE_TTL_SECONDS.
// @Tags feeds
// @Produce json
// @Param page query string false "Page number or 'last'"
// @Success 200 {object} object{page_obj=service.FeedPage}
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	key := pagination.Canonical(pageParam(c))

	body, err := s.feedCache.GetOrCompute(c.UserContext(), key, s.indexCacheTTL(),
		func(ctx context.Context) ([]byte, error) {
			page, err := s.feedService.GlobalFeed(ctx, key)
			if err != nil {
				return nil, err
			}
			return json.Marshal(fiber.Map{"page_obj": page})
		})
	if err != nil {
		return s.respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(body)
}

func (s *Server) indexCacheTTL() time.Duration {
	if !s.featureFlags.Enabled(featureflags.IndexCache, 0) {
		return 0
	}
	return s.config.IndexCacheDuration()
}

// GroupPosts handles GET /group/:slug/
// @Summary Group feed
// @Tags feeds
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query string false "Page number"
// @Success 200 {object} service.GroupFeed
// @Failure 404 {object} models.ErrorResponse
// @Router /group/{slug}/ [get]
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	feed, err := s.feedService.GroupFeed(c.UserContext(), pathParam(c, "slug"), pageParam(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(feed)
}

// Profile handles GET /profile/:username/
// @Summary Author profile
// @Description Posts by one author. following is set only for authenticated readers.
// @Tags feeds
// @Produce json
// @Param username path string true "Username"
// @Param page query string false "Page number"
// @Success 200 {object} service.ProfileFeed
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/ [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)

	feed, err := s.feedService.ProfileFeed(c.UserContext(), pathParam(c, "username"), pageParam(c), viewerID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(feed)
}

// FollowIndex handles GET /follow/
// @Summary Follow feed
// @Description Posts by authors the current user follows.
// @Tags feeds
// @Produce json
// @Param page query string false "Page number"
// @Success 200 {object} object{page_obj=service.FeedPage}
// @Failure 302 "Redirect to login"
// @Router /follow/ [get]
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.feedService.FollowFeed(c.UserContext(), currentUserID(c), pageParam(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"page_obj": page})
}
