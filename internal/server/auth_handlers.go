package server

import (
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

const invalidLoginMessage = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// SignupForm handles GET /auth/signup/
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"form": signupForm("", "")})
}

// Signup handles POST /auth/signup/
// @Summary User signup
// @Description Register a new account. Invalid input re-renders the form with errors.
// @Tags auth
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Success 201 {object} object{token=string,user=models.User}
// @Success 200 {object} object{form=object}
// @Router /auth/signup/ [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `form:"username" json:"username"`
		Email    string `form:"email" json:"email"`
		Password string `form:"password" json:"password"`
	}
	_ = c.BodyParser(&req)

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if models.IsCode(err, models.CodeValidation) {
			form := signupForm(req.Username, req.Email)
			form.bind(err)
			return c.JSON(fiber.Map{"form": form})
		}
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// LoginForm handles GET /auth/login/
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"form": loginForm(""),
		"next": c.Query("next"),
	})
}

// Login handles POST /auth/login/
// @Summary User login
// @Description Authenticates, sets the session cookie and redirects to next when it is a local path.
// @Tags auth
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param next formData string false "Where to go after login"
// @Success 302 "Redirect to next"
// @Success 200 {object} object{token=string,user=models.User}
// @Router /auth/login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `form:"username" json:"username"`
		Password string `form:"password" json:"password"`
		Next     string `form:"next" json:"next"`
	}
	_ = c.BodyParser(&req)
	if req.Next == "" {
		req.Next = c.Query("next")
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if models.IsCode(err, models.CodeUnauthenticated) {
			form := loginForm(req.Username)
			form.NonFieldErrors = append(form.NonFieldErrors, invalidLoginMessage)
			return c.JSON(fiber.Map{"form": form, "next": req.Next})
		}
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}
	s.setSessionCookie(c, token, time.Now().Add(tokenTTL))

	if next, ok := safeNext(req.Next); ok {
		return c.Redirect(next, fiber.StatusFound)
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /auth/logout/
// @Summary Logout
// @Description Revokes the current token and clears the session cookie.
// @Tags auth
// @Success 200 {object} object{message=string}
// @Router /auth/logout/ [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	tokenString := bearerToken(c)
	if tokenString == "" {
		tokenString = c.Cookies(sessionCookie)
	}

	if tokenString != "" && s.redis != nil {
		if claims, err := s.parseToken(tokenString); err == nil {
			jti, _ := claims["jti"].(string)
			exp, expErr := claims.GetExpirationTime()
			if jti != "" && expErr == nil && exp != nil {
				if ttl := time.Until(exp.Time); ttl > 0 {
					if err := s.redis.Set(c.UserContext(), blacklistKey+jti, "1", ttl).Err(); err != nil {
						middleware.Logger.WarnContext(c.UserContext(), "failed to revoke token",
							slog.String("error", err.Error()))
					}
				}
			}
		}
	}

	s.setSessionCookie(c, "", time.Unix(0, 0))
	return c.JSON(fiber.Map{"message": "Logged out"})
}
