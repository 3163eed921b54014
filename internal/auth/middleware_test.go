package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/repository"
	apperrors "github.com/spec-kit/meeting-service/pkg/util/errorutil"
)

type stubUsers struct {
	repository.UserRepository
	users map[string]*domain.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func newAuthApp(tm *TokenManager, users map[string]*domain.User) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var de *apperrors.DomainError
			if errors.As(err, &de) {
				return c.Status(de.HTTPStatus).SendString(de.Code)
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	mw := NewAuthMiddleware(tm, &stubUsers{users: users})
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		user, _ := UserFromContext(c)
		return c.SendString(user.ID)
	})
	app.Get("/managers", mw.Handle, RequireManager(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := newTestTokens()
	manager := &domain.User{ID: "m1", Role: domain.RoleManager, IsActive: true}
	staff := &domain.User{ID: "s1", Role: domain.RoleStaff, IsActive: true}
	inactive := &domain.User{ID: "s2", Role: domain.RoleStaff, IsActive: false}
	app := newAuthApp(tm, map[string]*domain.User{"m1": manager, "s1": staff, "s2": inactive})

	bearer := func(u *domain.User) string {
		tok, err := tm.IssueAccess(u)
		require.NoError(t, err)
		return "Bearer " + tok.Value
	}
	ghost, err := tm.IssueAccess(&domain.User{ID: "gone", Role: domain.RoleStaff})
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", fiber.StatusUnauthorized},
		{"malformed header", "/me", "Token abc", fiber.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc", fiber.StatusUnauthorized},
		{"unknown user", "/me", "Bearer " + ghost.Value, fiber.StatusUnauthorized},
		{"deactivated", "/me", bearer(inactive), fiber.StatusForbidden},
		{"active staff", "/me", bearer(staff), fiber.StatusOK},
		{"staff on manager route", "/managers", bearer(staff), fiber.StatusForbidden},
		{"manager on manager route", "/managers", bearer(manager), fiber.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_CookieFallback(t *testing.T) {
	tm := newTestTokens()
	staff := &domain.User{ID: "s1", Role: domain.RoleStaff, IsActive: true}
	app := newAuthApp(tm, map[string]*domain.User{"s1": staff})

	tok, err := tm.IssueAccess(staff)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", AccessTokenCookie+"="+tok.Value)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
