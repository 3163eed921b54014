package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/meeting-service/internal/auth"
	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/repository"
	"github.com/spec-kit/meeting-service/internal/storage"
	"github.com/spec-kit/meeting-service/pkg/util/errorutil"
)

// RegisterInput describes a new account. AvatarPath points at an uploaded
// temporary file which is always removed.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Role       domain.Role
	Department string
	JobTitle   string
	EmployeeID string
	ManagerID  string
	Timezone   string
	AvatarPath string
}

// AccountPatch carries optional profile updates.
type AccountPatch struct {
	FullName   *string
	Email      *string
	Department *string
	JobTitle   *string
	Timezone   *string
}

// Session is an authenticated user with a fresh token pair.
type Session struct {
	User    *domain.User
	Access  domain.Token
	Refresh domain.Token
}

// AuthService coordinates registration, login and account management.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	uploader   storage.Uploader
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Uploader   storage.Uploader
	Logger     *zap.Logger
	BcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		uploader:   deps.Uploader,
		logger:     logger.With(zap.String("component", "auth")),
		bcryptCost: deps.BcryptCost,
		now:        time.Now,
	}
}

// Register creates a manager or staff account. The avatar upload is required.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	defer removeTemp(input.AvatarPath)

	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	input.EmployeeID = strings.TrimSpace(input.EmployeeID)
	input.ManagerID = strings.TrimSpace(input.ManagerID)

	fields := fieldErrors{}
	if !validUsername(input.Username) {
		fields.add("username", "must be 3-20 lowercase letters, digits or underscores")
	}
	if !validEmail(input.Email) {
		fields.add("email", "must be a valid email address")
	}
	if input.FullName == "" {
		fields.add("fullName", "is required")
	}
	if len(input.Password) < auth.MinPasswordLength {
		fields.add("password", "must be at least 6 characters")
	}
	if !input.Role.Valid() {
		fields.add("role", "must be manager or staff")
	}
	if strings.TrimSpace(input.Department) == "" {
		fields.add("department", "is required")
	}
	if strings.TrimSpace(input.JobTitle) == "" {
		fields.add("jobTitle", "is required")
	}
	if input.EmployeeID == "" {
		fields.add("employeeId", "is required")
	}
	if input.Role == domain.RoleStaff && input.ManagerID == "" {
		fields.add("managerId", "is required for staff")
	}
	if input.Timezone != "" && !validTimezone(input.Timezone) {
		fields.add("timezone", "is not a known timezone")
	}
	if input.AvatarPath == "" {
		fields.add("avatar", "is required")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	if err := s.checkConflicts(ctx, input.Email, input.Username, input.EmployeeID, ""); err != nil {
		return nil, err
	}

	var managerID *string
	if input.Role == domain.RoleStaff {
		manager, err := s.users.GetByID(ctx, input.ManagerID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if manager == nil || !manager.IsManager() || !manager.IsActive {
			return nil, errorutil.NewValidationError("invalid manager",
				map[string]any{"managerId": "must reference an active manager"})
		}
		managerID = &manager.ID
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, errorutil.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	avatarURL, err := s.upload(ctx, input.AvatarPath)
	if err != nil {
		return nil, err
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         input.Role,
		Department:   strings.TrimSpace(input.Department),
		JobTitle:     strings.TrimSpace(input.JobTitle),
		EmployeeID:   input.EmployeeID,
		AvatarURL:    avatarURL,
		IsActive:     true,
		ManagerID:    managerID,
		Timezone:     timezone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login authenticates by email or username and stores a new refresh token.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, errorutil.NewValidationError("username or email and password are required", nil)
	}

	user, err := s.users.GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errorutil.NewForbidden("account is deactivated")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}

	now := s.now()
	user.LastLogin = &now
	return s.issueSession(ctx, user)
}

// Refresh rotates the token pair for a valid refresh token that matches the
// one stored on the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, errorutil.NewUnauthorized("refresh token is required")
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, errorutil.NewUnauthorized("invalid refresh token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewUnauthorized("invalid refresh token")
		}
		return nil, err
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, errorutil.NewUnauthorized("refresh token is expired or used")
	}
	if !user.IsActive {
		return nil, errorutil.NewForbidden("account is deactivated")
	}
	return s.issueSession(ctx, user)
}

// Logout clears the stored refresh token.
func (s *AuthService) Logout(ctx context.Context, user *domain.User) error {
	user.RefreshToken = nil
	return s.users.Update(ctx, user)
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, current, next string) error {
	if len(next) < auth.MinPasswordLength {
		return errorutil.NewValidationError("validation failed",
			map[string]any{"newPassword": "must be at least 6 characters"})
	}
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		return errorutil.NewUnauthorized("current password is incorrect")
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return errorutil.NewInternalError(fmt.Errorf("hash password: %w", err))
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// UpdateAccount applies profile changes.
func (s *AuthService) UpdateAccount(ctx context.Context, user *domain.User, patch AccountPatch) (*domain.User, error) {
	fields := fieldErrors{}
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if name == "" {
			fields.add("fullName", "cannot be empty")
		}
		user.FullName = name
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if !validEmail(email) {
			fields.add("email", "must be a valid email address")
		}
		user.Email = email
	}
	if patch.Department != nil {
		user.Department = strings.TrimSpace(*patch.Department)
	}
	if patch.JobTitle != nil {
		user.JobTitle = strings.TrimSpace(*patch.JobTitle)
	}
	if patch.Timezone != nil {
		if !validTimezone(*patch.Timezone) {
			fields.add("timezone", "is not a known timezone")
		}
		user.Timezone = *patch.Timezone
	}
	if err := fields.err(); err != nil {
		return nil, err
	}
	if patch.Email != nil {
		if err := s.checkConflicts(ctx, user.Email, "", "", user.ID); err != nil {
			return nil, err
		}
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAvatar replaces the user's avatar with the uploaded file.
func (s *AuthService) UpdateAvatar(ctx context.Context, user *domain.User, localPath string) (*domain.User, error) {
	defer removeTemp(localPath)
	if localPath == "" {
		return nil, errorutil.NewValidationError("avatar file is required", nil)
	}
	url, err := s.upload(ctx, localPath)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = url
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate disables the account and revokes its refresh token.
func (s *AuthService) Deactivate(ctx context.Context, user *domain.User) error {
	user.IsActive = false
	user.RefreshToken = nil
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("account deactivated", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*Session, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, errorutil.NewInternalError(fmt.Errorf("issue access token: %w", err))
	}
	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return nil, errorutil.NewInternalError(fmt.Errorf("issue refresh token: %w", err))
	}
	user.RefreshToken = &refresh.Value
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return &Session{User: user, Access: access, Refresh: refresh}, nil
}

func (s *AuthService) checkConflicts(ctx context.Context, email, username, employeeID, excludeID string) error {
	conflict, err := s.users.FindConflicts(ctx, email, username, employeeID, excludeID)
	if err != nil {
		return err
	}
	if !conflict.Any() {
		return nil
	}
	details := map[string]any{}
	if conflict.Email {
		details["email"] = "is already registered"
	}
	if conflict.Username {
		details["username"] = "is already taken"
	}
	if conflict.EmployeeID {
		details["employeeId"] = "is already registered"
	}
	return errorutil.NewConflict("user already exists", details)
}

func (s *AuthService) upload(ctx context.Context, localPath string) (string, error) {
	if s.uploader == nil {
		return "", errorutil.NewExternalServiceError("storage", storage.ErrNotConfigured)
	}
	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		s.logger.Warn("avatar upload failed", zap.Error(err))
		return "", errorutil.NewExternalServiceError("storage", err)
	}
	return url, nil
}

func removeTemp(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
