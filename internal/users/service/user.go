package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tutorhub/internal/events"
	"tutorhub/internal/users/repository"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/sanitizer"
	"tutorhub/pkg/sealer"
	"tutorhub/pkg/validation"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	PurposePasswordReset = "password_reset"

	// passwordBindingLength is how much of the bcrypt hash a reset token is
	// bound to. Changing the password invalidates outstanding tokens.
	passwordBindingLength = 10
)

type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	Me(ctx context.Context, caller auth.Identity) (*model.User, error)
	UpdateMe(ctx context.Context, caller auth.Identity, upd *model.ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, caller auth.Identity, req *model.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, req *model.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error

	CreateAdmin(ctx context.Context, name, email, password string) (*model.User, error)
	SetPasswordByEmail(ctx context.Context, email, password string) error
	SetActiveByEmail(ctx context.Context, email string, active bool) error
}

type TokenIssuer interface {
	Issue(userID, role string) (string, time.Time, error)
}

type TokenSealer interface {
	Seal(c sealer.Claims) (string, error)
	Open(purpose, token string) (sealer.Claims, error)
}

type Options struct {
	PasswordResetTTL   time.Duration
	FrontendURL        string
	DefaultPhoneRegion string
}

type userService struct {
	repo      repository.UserRepository
	tokens    TokenIssuer
	sealer    TokenSealer
	validator *validation.Validator
	publisher events.Publisher
	opts      Options
	log       *logger.Logger
	now       func() time.Time
}

func NewUserService(
	repo repository.UserRepository,
	tokens TokenIssuer,
	sealer TokenSealer,
	validator *validation.Validator,
	publisher events.Publisher,
	opts Options,
	log *logger.Logger,
) UserService {
	return &userService{
		repo:      repo,
		tokens:    tokens,
		sealer:    sealer,
		validator: validator,
		publisher: publisher,
		opts:      opts,
		log:       log,
		now:       mongodb.Now,
	}
}

func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if req.Role == model.RoleAdmin {
		return nil, apperrors.BadRequest("Admin accounts cannot be self-registered")
	}

	req.Name = sanitizer.NormalizeName(req.Name)
	req.Email = sanitizer.NormalizeEmail(req.Email)
	phone, err := s.normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	req.Phone = phone

	if err := s.validator.Struct(req); err != nil {
		s.log.Warn("Registration validation failed", "email", req.Email, "error", err)
		return nil, err
	}

	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, req.Role, req.Phone)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Event{
		Type:        events.TypeUserRegistered,
		AggregateID: user.ID,
		Payload: events.UserRegistered{
			User: contactOf(user),
			Role: user.Role,
		},
	})

	return s.issue(user)
}

func (s *userService) createUser(ctx context.Context, name, email, password, role, phone string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	now := s.now()
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        phone,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("An account with this email already exists")
		}
		s.log.Error("Failed to create user", "email", email, "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.log.Info("User created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		s.log.Error("Failed to load user for login", "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return nil, apperrors.Forbidden("Account is deactivated")
	}

	now := s.now()
	if err := s.repo.TouchLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("Failed to record login time", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	return s.issue(user)
}

func (s *userService) Me(ctx context.Context, caller auth.Identity) (*model.User, error) {
	return s.getByID(ctx, caller.UserID)
}

func (s *userService) UpdateMe(ctx context.Context, caller auth.Identity, upd *model.ProfileUpdate) (*model.User, error) {
	set := bson.M{}
	if upd.Name != nil {
		name := sanitizer.NormalizeName(*upd.Name)
		upd.Name = &name
		set["name"] = name
	}
	if upd.Phone != nil {
		phone, err := s.normalizePhone(*upd.Phone)
		if err != nil {
			return nil, err
		}
		set["phone"] = phone
		upd.Phone = clearable(phone)
	}
	if upd.AvatarURL != nil {
		avatar := sanitizer.NormalizeURL(*upd.AvatarURL)
		if avatar == "" && strings.TrimSpace(*upd.AvatarURL) != "" {
			return nil, apperrors.Validation("Validation failed", map[string]any{"avatar_url": "avatar_url must be a valid URL"})
		}
		set["avatar_url"] = avatar
		upd.AvatarURL = clearable(avatar)
	}

	if err := s.validator.Struct(upd); err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, apperrors.BadRequest("No fields to update")
	}

	if err := s.repo.UpdateProfile(ctx, caller.UserID, set); err != nil {
		return nil, s.mapRepoError(err, caller.UserID, "update profile")
	}
	return s.getByID(ctx, caller.UserID)
}

func (s *userService) ChangePassword(ctx context.Context, caller auth.Identity, req *model.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.getByID(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return apperrors.Unauthorized("Current password is incorrect")
	}

	return s.setPassword(ctx, user.ID, req.NewPassword)
}

// ForgotPassword never reveals whether the email is registered. The reset
// link reaches the user through the notifier.
func (s *userService) ForgotPassword(ctx context.Context, req *model.ForgotPasswordRequest) error {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Info("Password reset requested for unknown email")
			return nil
		}
		s.log.Error("Failed to load user for password reset", "error", err)
		return apperrors.Internal("Failed to request password reset", err)
	}
	if !user.IsActive {
		s.log.Info("Password reset requested for inactive account", "user_id", user.ID)
		return nil
	}

	expiresAt := s.now().Add(s.opts.PasswordResetTTL)
	token, err := s.sealer.Seal(sealer.Claims{
		Purpose:   PurposePasswordReset,
		Subject:   user.ID,
		Binding:   passwordBinding(user.PasswordHash),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return apperrors.Internal("Failed to issue reset token", err)
	}

	s.publisher.Publish(ctx, events.Event{
		Type:        events.TypePasswordResetRequested,
		AggregateID: user.ID,
		Payload: events.PasswordResetRequested{
			User:      contactOf(user),
			Token:     token,
			ResetURL:  s.opts.FrontendURL + "/reset-password?token=" + token,
			ExpiresAt: expiresAt,
		},
	})
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	invalid := apperrors.BadRequest("Reset token is invalid or has expired")
	claims, err := s.sealer.Open(PurposePasswordReset, req.Token)
	if err != nil {
		s.log.Info("Rejected password reset token", "error", err)
		return invalid
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return invalid
		}
		return apperrors.Internal("Failed to reset password", err)
	}
	if passwordBinding(user.PasswordHash) != claims.Binding {
		return invalid
	}

	return s.setPassword(ctx, user.ID, req.NewPassword)
}

func (s *userService) CreateAdmin(ctx context.Context, name, email, password string) (*model.User, error) {
	req := &model.RegisterRequest{
		Name:     sanitizer.NormalizeName(name),
		Email:    sanitizer.NormalizeEmail(email),
		Password: password,
		Role:     model.RoleStudent,
	}
	// Role is checked against the self-service roles; the stored role is admin.
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.createUser(ctx, req.Name, req.Email, req.Password, model.RoleAdmin, "")
}

func (s *userService) SetPasswordByEmail(ctx context.Context, email, password string) error {
	req := &model.ResetPasswordRequest{Token: "-", NewPassword: password}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, user.ID, password)
}

func (s *userService) SetActiveByEmail(ctx context.Context, email string, active bool) error {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, user.ID, active); err != nil {
		return s.mapRepoError(err, user.ID, "set active")
	}
	s.log.Info("User active flag changed", "user_id", user.ID, "is_active", active)
	return nil
}

func (s *userService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}
	if err := s.repo.SetPassword(ctx, userID, hash); err != nil {
		return s.mapRepoError(err, userID, "set password")
	}
	s.log.Info("Password changed", "user_id", userID)
	return nil
}

func (s *userService) getByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "get user")
	}
	return user, nil
}

func (s *userService) getByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, sanitizer.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal("Failed to load user", err)
	}
	return user, nil
}

func (s *userService) mapRepoError(err error, id, operation string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFoundWithID("User", id)
	case errors.Is(err, repository.ErrInvalidID):
		return apperrors.InvalidInput("Invalid user ID format")
	default:
		s.log.Error("User repository call failed", "operation", operation, "user_id", id, "error", err)
		return apperrors.Internal("Failed to "+operation, err)
	}
}

func (s *userService) normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	phone := sanitizer.NormalizePhone(raw, s.opts.DefaultPhoneRegion)
	if phone == "" {
		return "", apperrors.Validation("Validation failed", map[string]any{"phone": "phone must be a valid phone number"})
	}
	return phone, nil
}

func (s *userService) issue(user *model.User) (*model.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &model.AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func passwordBinding(hash string) string {
	if len(hash) <= passwordBindingLength {
		return hash
	}
	return hash[len(hash)-passwordBindingLength:]
}

// clearable drops empty values from validation so a field can be cleared.
func clearable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func contactOf(u *model.User) events.Contact {
	return events.Contact{ID: u.ID, Name: u.Name, Email: u.Email}
}
