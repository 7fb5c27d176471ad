package server

import (
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/service"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Fullname string `json:"fullname" form:"fullname"`
	Password string `json:"password" form:"password"`
}

// loginResponse is the data of a successful login.
type loginResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register (multipart)
func (s *Server) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Fullname:   req.Fullname,
		Password:   req.Password,
		Avatar:     stagedFile(c, "avatar"),
		CoverImage: stagedFile(c, "coverImage"),
	})
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, user, "User registered successfully")
}

// Login handles POST /api/v1/users/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	user, session, err := s.userService.Login(c.UserContext(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	s.setSessionCookies(c, session)
	return respond(c, fiber.StatusOK, loginResponse{
		User:         user,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, "User logged in successfully")
}

// RefreshToken handles POST /api/v1/users/refreshToken
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	raw := c.Cookies(refreshTokenCookie)
	if raw == "" {
		var req struct {
			RefreshToken string `json:"refreshToken" form:"refreshToken"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return models.NewValidationError("Invalid request body")
			}
		}
		raw = req.RefreshToken
	}

	session, err := s.userService.Refresh(c.UserContext(), raw)
	if err != nil {
		return err
	}

	s.setSessionCookies(c, session)
	return respond(c, fiber.StatusOK, session, "Access token refreshed")
}

// Logout handles POST /api/v1/users/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.userService.Logout(c.UserContext(), currentUserID(c), currentClaims(c)); err != nil {
		return err
	}

	s.clearSessionCookies(c)
	return respond(c, fiber.StatusOK, fiber.Map{}, "User logged out")
}

// UpdatePassword handles POST /api/v1/users/updatePassword
func (s *Server) UpdatePassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword string `json:"oldPassword" form:"oldPassword"`
		NewPassword string `json:"newPassword" form:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	err := s.userService.ChangePassword(c.UserContext(), service.ChangePasswordInput{
		UserID:      currentUserID(c),
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, fiber.Map{}, "Password changed successfully")
}

// GetUserInfo handles GET /api/v1/users/getUserInfo
func (s *Server) GetUserInfo(c *fiber.Ctx) error {
	user, err := s.userService.Current(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, "User fetched successfully")
}

// UpdateAccountDetails handles PATCH /api/v1/users/updateAccDetails
func (s *Server) UpdateAccountDetails(c *fiber.Ctx) error {
	var req struct {
		Fullname string `json:"fullname" form:"fullname"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	user, err := s.userService.UpdateAccount(c.UserContext(), currentUserID(c), req.Fullname)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/updateAvatar (multipart)
func (s *Server) UpdateAvatar(c *fiber.Ctx) error {
	asset, err := s.userService.ReplaceAvatar(c.UserContext(), currentUserID(c), stagedFile(c, "avatar"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, models.AssetURL{URL: asset.URL}, "Avatar updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/updateCoverImage (multipart)
func (s *Server) UpdateCoverImage(c *fiber.Ctx) error {
	asset, err := s.userService.ReplaceCoverImage(c.UserContext(), currentUserID(c), stagedFile(c, "coverImage"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, models.AssetURL{URL: asset.URL}, "Cover image updated successfully")
}

// GetChannelProfile handles GET /api/v1/users/c/:username
func (s *Server) GetChannelProfile(c *fiber.Ctx) error {
	profile, err := s.userService.Channel(c.UserContext(), c.Params("username"), currentUserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, profile, "Channel fetched successfully")
}

// GetWatchHistory handles GET /api/v1/users/getWatchedHistory
func (s *Server) GetWatchHistory(c *fiber.Ctx) error {
	videos, err := s.userService.WatchHistory(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, videos, "Watch history fetched successfully")
}

// ListAdmins handles GET /api/v1/admin/users (admin only)
func (s *Server) ListAdmins(c *fiber.Ctx) error {
	admins, err := s.userService.ListAdmins(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, admins, "Admins fetched successfully")
}

// PromoteToAdmin handles POST /api/v1/admin/users/:username/promote (admin only)
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	return s.setAdmin(c, true, "User promoted to admin")
}

// DemoteFromAdmin handles POST /api/v1/admin/users/:username/demote (admin only)
// Admins cannot demote themselves, so at least one admin always remains.
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	if user, ok := c.Locals("user").(*models.User); ok && strings.EqualFold(user.Username, c.Params("username")) {
		return models.NewValidationError("You cannot demote yourself")
	}
	return s.setAdmin(c, false, "User demoted from admin")
}

func (s *Server) setAdmin(c *fiber.Ctx, isAdmin bool, message string) error {
	user, err := s.userService.SetAdmin(c.UserContext(), c.Params("username"), isAdmin)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, message)
}
