package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/meeting-service/internal/api/dto"
	"github.com/spec-kit/meeting-service/internal/auth"
	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/service"
	apperrors "github.com/spec-kit/meeting-service/pkg/util/errorutil"
)

const (
	accessCookie  = auth.AccessTokenCookie
	refreshCookie = "refreshToken"
)

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	auth          *service.AuthService
	actions       *service.ActionItemService
	uploadDir     string
	secureCookies bool
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, actions *service.ActionItemService, uploadDir string, secureCookies bool) *UsersHandler {
	return &UsersHandler{auth: authService, actions: actions, uploadDir: uploadDir, secureCookies: secureCookies}
}

// Register handles POST /users/register (multipart).
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	avatarPath, err := h.saveUpload(c, "avatar")
	if err != nil {
		return err
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Role:       domain.Role(strings.ToLower(strings.TrimSpace(req.Role))),
		Department: req.Department,
		JobTitle:   req.JobTitle,
		EmployeeID: req.EmployeeID,
		ManagerID:  req.ManagerID,
		Timezone:   req.Timezone,
		AvatarPath: avatarPath,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login handles POST /users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	session, err := h.auth.Login(c.UserContext(), identifier, req.Password)
	if err != nil {
		return err
	}
	return h.writeSession(c, session)
}

// Refresh handles POST /users/refresh-token. The token may come from the body
// or the refresh cookie.
func (h *UsersHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	_ = c.BodyParser(&req)
	token := req.RefreshToken
	if token == "" {
		token = c.Cookies(refreshCookie)
	}
	session, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}
	return h.writeSession(c, session)
}

// Logout handles POST /users/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), user); err != nil {
		return err
	}
	c.ClearCookie(accessCookie, refreshCookie)
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "logged out"}})
}

// Current handles GET /users/current-user.
func (h *UsersHandler) Current(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ChangePassword handles POST /users/change-password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.ChangePassword(c.UserContext(), user, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "password changed"}})
}

// UpdateAccount handles PATCH /users/update-account.
func (h *UsersHandler) UpdateAccount(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.auth.UpdateAccount(c.UserContext(), user, service.AccountPatch{
		FullName:   req.FullName,
		Email:      req.Email,
		Department: req.Department,
		JobTitle:   req.JobTitle,
		Timezone:   req.Timezone,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(updated)})
}

// UpdateAvatar handles PATCH /users/avatar (multipart).
func (h *UsersHandler) UpdateAvatar(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	path, err := h.saveUpload(c, "avatar")
	if err != nil {
		return err
	}
	updated, err := h.auth.UpdateAvatar(c.UserContext(), user, path)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(updated)})
}

// Deactivate handles POST /users/deactivate.
func (h *UsersHandler) Deactivate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.auth.Deactivate(c.UserContext(), user); err != nil {
		return err
	}
	c.ClearCookie(accessCookie, refreshCookie)
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "account deactivated"}})
}

// ActionItems handles GET /users/:userId/action-items.
func (h *UsersHandler) ActionItems(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.actions.ListForUser(c.UserContext(), user, c.Params("userId"))
	if err != nil {
		return err
	}
	out := make([]dto.AssignedActionItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.NewAssignedActionItemResponse(item))
	}
	return c.JSON(fiber.Map{"data": out})
}

func (h *UsersHandler) writeSession(c *fiber.Ctx, session *service.Session) error {
	h.setCookie(c, accessCookie, session.Access.Value, session.Access.ExpiresAt)
	h.setCookie(c, refreshCookie, session.Refresh.Value, session.Refresh.ExpiresAt)
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		User:             dto.NewUserResponse(session.User),
		AccessToken:      session.Access.Value,
		RefreshToken:     session.Refresh.Value,
		AccessExpiresAt:  session.Access.ExpiresAt,
		RefreshExpiresAt: session.Refresh.ExpiresAt,
	}})
}

func (h *UsersHandler) setCookie(c *fiber.Ctx, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// saveUpload stores a multipart file under the upload dir. A missing file
// yields an empty path, which the service rejects.
func (h *UsersHandler) saveUpload(c *fiber.Ctx, field string) (string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	path := filepath.Join(h.uploadDir, uuid.NewString()+filepath.Ext(header.Filename))
	if err := c.SaveFile(header, path); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return path, nil
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	copied := *user
	return &copied, nil
}
