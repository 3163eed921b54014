package dto

import (
	"time"

	"github.com/spec-kit/meeting-service/internal/domain"
)

// RegisterRequest carries the form fields of POST /users/register; the
// avatar arrives as a multipart file.
type RegisterRequest struct {
	Username   string `form:"username"`
	Email      string `form:"email"`
	FullName   string `form:"fullName"`
	Password   string `form:"password"`
	Role       string `form:"role"`
	Department string `form:"department"`
	JobTitle   string `form:"jobTitle"`
	EmployeeID string `form:"employeeId"`
	ManagerID  string `form:"managerId"`
	Timezone   string `form:"timezone"`
}

// LoginRequest accepts either email or username.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type UpdateAccountRequest struct {
	FullName   *string `json:"fullName"`
	Email      *string `json:"email"`
	Department *string `json:"department"`
	JobTitle   *string `json:"jobTitle"`
	Timezone   *string `json:"timezone"`
}

// UserResponse is the account representation returned to its owner.
type UserResponse struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FullName   string     `json:"fullName"`
	Role       string     `json:"role"`
	Department string     `json:"department"`
	JobTitle   string     `json:"jobTitle"`
	EmployeeID string     `json:"employeeId"`
	Avatar     string     `json:"avatar"`
	IsActive   bool       `json:"isActive"`
	LastLogin  *time.Time `json:"lastLogin"`
	ManagerID  *string    `json:"managerId"`
	Timezone   string     `json:"timezone"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	User             UserResponse `json:"user"`
	AccessToken      string       `json:"accessToken"`
	RefreshToken     string       `json:"refreshToken"`
	AccessExpiresAt  time.Time    `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time    `json:"refreshExpiresAt"`
}

// NewUserResponse never exposes the password hash or refresh token.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       string(u.Role),
		Department: u.Department,
		JobTitle:   u.JobTitle,
		EmployeeID: u.EmployeeID,
		Avatar:     u.AvatarURL,
		IsActive:   u.IsActive,
		LastLogin:  u.LastLogin,
		ManagerID:  u.ManagerID,
		Timezone:   u.Timezone,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
