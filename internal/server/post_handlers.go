package server

import (
	"fmt"

	"yatube/internal/featureflags"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PostDetail handles GET /posts/:id/
// @Summary Post detail
// @Description A post with its comments (oldest first) and the comment form.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [get]
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.postService.GetPostDetail(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"post":               detail.Post,
		"author_posts_count": detail.AuthorPostsCount,
		"comments":           detail.Comments,
		"form":               commentForm(id),
	})
}

// PostCreateForm handles GET /create/
func (s *Server) PostCreateForm(c *fiber.Ctx) error {
	groups, err := s.groupService.ListGroups(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return renderPostForm(c, postForm("/create/", postFormData{}, groups), false, nil)
}

// PostCreate handles POST /create/
// @Summary Create post
// @Description Creates a post for the current user and redirects to their profile.
// Invalid input re-renders the form with errors.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Image"
// @Success 302 "Redirect to /profile/{username}/"
// @Success 200 {object} object{form=object,is_edit=bool}
// @Router /create/ [post]
func (s *Server) PostCreate(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	data := bindPostForm(c)
	groups, err := s.groupService.ListGroups(ctx)
	if err != nil {
		return s.respondError(c, err)
	}
	form := postForm("/create/", data, groups)

	groupID, err := parseGroupID(data.Group)
	if err != nil {
		form.bind(err)
	}
	image, err := formImage(c)
	if err != nil {
		form.bind(err)
	}
	if !form.Valid() {
		return renderPostForm(c, form, false, nil)
	}

	_, err = s.postService.CreatePost(ctx, service.CreatePostInput{
		AuthorID: userID,
		Text:     data.Text,
		GroupID:  groupID,
		Image:    image,
	})
	if err != nil {
		if models.IsCode(err, models.CodeValidation) {
			form.bind(err)
			return renderPostForm(c, form, false, nil)
		}
		return s.respondError(c, err)
	}

	return c.Redirect(profilePath(currentUser(c).Username), fiber.StatusFound)
}

// PostEditForm handles GET /posts/:id/edit/
func (s *Server) PostEditForm(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return s.respondError(c, err)
	}
	groups, err := s.groupService.ListGroups(ctx)
	if err != nil {
		return s.respondError(c, err)
	}

	data := postFormData{Text: post.Text}
	if post.GroupID != nil {
		data.Group = fmt.Sprint(*post.GroupID)
	}
	view := service.NewPostView(post)
	return renderPostForm(c, postForm(editPath(id), data, groups), true, &view)
}

// PostEdit handles POST /posts/:id/edit/
// @Summary Edit post
// @Description Saves the author's changes and redirects to the post. A non-author
// gets the form back with nothing saved.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Post ID"
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Image"
// @Success 302 "Redirect to /posts/{id}/"
// @Success 200 {object} object{form=object,is_edit=bool,post=service.PostView}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/edit/ [post]
func (s *Server) PostEdit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return s.respondError(c, err)
	}
	groups, err := s.groupService.ListGroups(ctx)
	if err != nil {
		return s.respondError(c, err)
	}

	data := bindPostForm(c)
	form := postForm(editPath(id), data, groups)
	view := service.NewPostView(post)

	if post.AuthorID != userID {
		return s.denyEdit(c, form, &view)
	}

	groupID, err := parseGroupID(data.Group)
	if err != nil {
		form.bind(err)
	}
	image, err := formImage(c)
	if err != nil {
		form.bind(err)
	}
	if !form.Valid() {
		return renderPostForm(c, form, true, &view)
	}

	_, err = s.postService.UpdatePost(ctx, service.UpdatePostInput{
		UserID:     userID,
		PostID:     id,
		Text:       data.Text,
		GroupID:    groupID,
		Image:      image,
		ClearImage: c.FormValue("image-clear") == "on",
	})
	switch {
	case err == nil:
		return c.Redirect(postPath(id), fiber.StatusFound)
	case models.IsCode(err, models.CodeValidation):
		form.bind(err)
		return renderPostForm(c, form, true, &view)
	case models.IsCode(err, models.CodeForbidden):
		return s.denyEdit(c, form, &view)
	default:
		return s.respondError(c, err)
	}
}

// denyEdit answers an edit by someone other than the author. By default the
// form is shown again as submitted and nothing is saved.
func (s *Server) denyEdit(c *fiber.Ctx, form *formView, post *service.PostView) error {
	if s.featureFlags.Enabled(featureflags.ExplicitForbiddenEdit, currentUserID(c)) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only edit your own posts"))
	}
	return renderPostForm(c, form, true, post)
}

// PostDelete handles POST /posts/:id/delete/
// @Summary Delete post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 302 "Redirect to /profile/{username}/"
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/delete/ [post]
func (s *Server) PostDelete(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(ctx, service.DeletePostInput{UserID: userID, PostID: id}); err != nil {
		return s.respondError(c, err)
	}

	return c.Redirect(profilePath(currentUser(c).Username), fiber.StatusFound)
}

func bindPostForm(c *fiber.Ctx) postFormData {
	var data postFormData
	if err := c.BodyParser(&data); err != nil {
		return postFormData{}
	}
	return data
}

func renderPostForm(c *fiber.Ctx, form *formView, isEdit bool, post *service.PostView) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"form":    form,
		"is_edit": isEdit,
		"post":    post,
	})
}

func editPath(id uint) string {
	return postPath(id) + "edit/"
}
