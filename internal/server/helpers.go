package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint. Anything
// else names no resource, so it answers 404 and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("post", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// pageParam copies the page query value out of Fiber's request buffer, since
// it ends up in cache keys and trace spans that outlive the request.
func pageParam(c *fiber.Ctx) string {
	return utils.CopyString(c.Query("page"))
}

// pathParam copies a route parameter out of Fiber's request buffer.
func pathParam(c *fiber.Ctx, name string) string {
	return utils.CopyString(c.Params(name))
}

// respondError writes err with the status its code maps to. Internal errors are logged.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

// currentUserID returns the principal set by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	uid, _ := c.Locals("userID").(uint)
	return uid
}

// currentUser is the user loaded by AuthRequired.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// profilePath is where a user's own profile lives.
func profilePath(username string) string {
	return "/profile/" + username + "/"
}

func postPath(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// formImage reads the optional "image" multipart file.
func formImage(c *fiber.Ctx) (*service.UploadImageInput, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		// Not a multipart request or no file attached.
		return nil, nil
	}
	if fh.Size == 0 {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewFieldError("image", "The submitted file could not be read.")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewFieldError("image", "The submitted file could not be read.")
	}
	return &service.UploadImageInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

// parseGroupID turns the group select value into an optional id.
func parseGroupID(raw string) (*uint, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, models.NewFieldError("group", "Select a valid choice. That choice is not one of the available choices.")
	}
	gid := uint(id)
	return &gid, nil
}
