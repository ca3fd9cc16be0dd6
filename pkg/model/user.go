package model

import "time"

const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

type User struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	Name         string     `json:"name" bson:"name"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	Role         string     `json:"role" bson:"role"`
	Phone        string     `json:"phone,omitempty" bson:"phone,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	IsActive     bool       `json:"is_active" bson:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// UserSummary is the public projection embedded in populated views.
type UserSummary struct {
	ID        string `json:"id" bson:"_id,omitempty"`
	Name      string `json:"name" bson:"name"`
	Email     string `json:"email,omitempty" bson:"email"`
	Role      string `json:"role,omitempty" bson:"role"`
	AvatarURL string `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=student tutor"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

type ProfileUpdate struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,e164"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=1000"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type UserStatusUpdate struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type UserFilter struct {
	Role     string
	IsActive *bool
}
