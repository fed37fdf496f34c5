package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rx-logistics/internal/config"
	domainUser "rx-logistics/internal/domain/user"
	"rx-logistics/internal/logger"
	appErrors "rx-logistics/pkg/errors"
	"rx-logistics/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements user use cases
type Service struct {
	userRepo         domainUser.Repository
	refreshTokenRepo domainUser.RefreshTokenRepository
	config           *config.Config
	now              func() time.Time
}

// NewService creates a new user service
func NewService(
	userRepo domainUser.Repository,
	refreshTokenRepo domainUser.RefreshTokenRepository,
	cfg *config.Config,
) *Service {
	return &Service{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		config:           cfg,
		now:              time.Now,
	}
}

var errInvalidCredentials = appErrors.NewAppError(appErrors.CodeUnauthorized, "Invalid email or password", appErrors.ErrInvalidCredentials)

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := validatePasswordRequest(req, req.Password); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, domainUser.ErrUserNotFound) {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to check existing user", err)
	}
	if existingUser != nil {
		logger.Warn("Registration attempt with existing email",
			zap.String("email", req.Email),
			zap.String("event", "registration_failed_duplicate_email"),
		)
		return nil, appErrors.NewAppError(appErrors.CodeConflict, "An account with this email already exists", appErrors.ErrUserAlreadyExists)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domainUser.User{
		Email:          req.Email,
		PasswordHashed: hashedPassword,
		FirstName:      utils.SanitizeString(req.FirstName),
		LastName:       utils.SanitizeString(req.LastName),
		Phone:          sanitizePhone(req.Phone),
		JobTitle:       utils.SanitizeOptional(req.JobTitle),
		Role:           domainUser.RoleDriver,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			return nil, appErrors.NewAppError(appErrors.CodeConflict, "An account with this email already exists", err)
		}
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to create account", err)
	}

	logger.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
		zap.String("event", "user_registered"),
	)

	return s.issueTokens(ctx, user)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid input", utils.FieldErrors(err))
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Login attempt with non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "user_not_found"),
			)
			return nil, errInvalidCredentials
		}
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to load account", err)
	}

	if !utils.CheckPassword(user.PasswordHashed, req.Password) {
		logger.Warn("Login attempt with invalid password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "login_failed_invalid_password"),
		)
		return nil, errInvalidCredentials
	}

	if !user.IsActive {
		logger.Warn("Login attempt for inactive user",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "login_failed_inactive_user"),
		)
		return nil, appErrors.NewAppError(appErrors.CodeForbidden, "This account has been deactivated", domainUser.ErrUserInactive)
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("event", "login_success"),
	)
	return resp, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued with the account's current role.
func (s *Service) Refresh(ctx context.Context, req *RefreshRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid input", utils.FieldErrors(err))
	}

	invalid := appErrors.NewAppError(appErrors.CodeUnauthorized, "Invalid or expired refresh token", appErrors.ErrInvalidToken)

	claims, err := utils.ValidateTokenOfType(req.RefreshToken, s.config.JWT.Secret, utils.TokenTypeRefresh)
	if err != nil {
		logger.Warn("Token refresh attempt with invalid token",
			zap.String("event", "token_refresh_failed_invalid_token"),
			zap.Error(err),
		)
		return nil, invalid
	}

	dbToken, err := s.refreshTokenRepo.GetByToken(ctx, req.RefreshToken)
	if err != nil {
		logger.Warn("Token refresh attempt with unknown or revoked token",
			zap.String("user_id", claims.UserID.String()),
			zap.String("event", "token_refresh_failed_token_not_found"),
		)
		return nil, invalid
	}

	if dbToken.UserID != claims.UserID || !dbToken.IsUsable(s.now()) {
		logger.Warn("Token refresh attempt with mismatched token",
			zap.String("token_user_id", dbToken.UserID.String()),
			zap.String("claim_user_id", claims.UserID.String()),
			zap.String("event", "token_refresh_failed_user_mismatch"),
		)
		return nil, invalid
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, invalid
	}

	if err := s.refreshTokenRepo.Revoke(ctx, dbToken.ID); err != nil {
		// a concurrent refresh already spent this token
		if errors.Is(err, domainUser.ErrTokenInvalid) {
			return nil, invalid
		}
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to rotate refresh token", err)
	}

	logger.Debug("Token refreshed",
		zap.String("user_id", user.ID.String()),
		zap.String("old_token_id", dbToken.ID.String()),
		zap.String("event", "token_refresh_success"),
	)

	return s.issueTokens(ctx, user)
}

// Logout revokes the given refresh token, or every token of the user when
// none is given.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, req *LogoutRequest) error {
	if req == nil || strings.TrimSpace(req.RefreshToken) == "" {
		if err := s.refreshTokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
			return appErrors.NewAppError(appErrors.CodeDatabase, "Failed to sign out", err)
		}
		logger.Info("All refresh tokens revoked for user",
			zap.String("user_id", userID.String()),
			zap.String("event", "all_tokens_revoked"),
		)
		return nil
	}

	dbToken, err := s.refreshTokenRepo.GetByToken(ctx, req.RefreshToken)
	if err != nil || dbToken.UserID != userID {
		return appErrors.NewAppError(appErrors.CodeUnauthorized, "Invalid or expired refresh token", appErrors.ErrInvalidToken)
	}

	if err := s.refreshTokenRepo.Revoke(ctx, dbToken.ID); err != nil && !errors.Is(err, domainUser.ErrTokenInvalid) {
		return appErrors.NewAppError(appErrors.CodeDatabase, "Failed to sign out", err)
	}

	logger.Info("Refresh token revoked successfully",
		zap.String("user_id", userID.String()),
		zap.String("token_id", dbToken.ID.String()),
		zap.String("event", "token_revoked"),
	)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	if err := validatePasswordRequest(req, req.NewPassword); err != nil {
		return err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if !utils.CheckPassword(user.PasswordHashed, req.OldPassword) {
		logger.Warn("Password change attempt with invalid old password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "password_change_failed_invalid_old_password"),
		)
		return appErrors.NewValidationError("Current password is incorrect", map[string]string{
			"old_password": "is incorrect",
		})
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return s.userError(err, "Failed to change password")
	}

	// other sessions must sign in again with the new password
	if err := s.refreshTokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		logger.Error("Failed to revoke tokens after password change",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	logger.Info("Password changed successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("event", "password_change_success"),
	)
	return nil
}

// ActiveAccount returns the user behind an access token. Accounts removed or
// deactivated after the token was issued are refused, and the stored role
// replaces the one in the token.
func (s *Service) ActiveAccount(ctx context.Context, userID uuid.UUID) (*domainUser.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "Invalid or expired token", err)
		}
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to load user", err)
	}
	if !user.IsActive {
		return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "This account has been deactivated", domainUser.ErrUserInactive)
	}
	return user, nil
}

// Me returns the signed-in user's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*UserResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid input", utils.FieldErrors(err))
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = utils.SanitizeString(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = utils.SanitizeString(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = sanitizePhone(req.Phone)
	}
	if req.JobTitle != nil {
		user.JobTitle = utils.SanitizeOptional(req.JobTitle)
	}
	if strings.TrimSpace(user.FirstName) == "" {
		return nil, appErrors.NewValidationError("Invalid input", map[string]string{"first_name": "is required"})
	}
	user.UpdatedAt = s.now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to update profile", err)
	}

	logger.Info("Profile updated",
		zap.String("user_id", user.ID.String()),
		zap.String("event", "profile_updated"),
	)
	return ToUserResponse(user), nil
}

func (s *Service) ListUsers(ctx context.Context, viewer domainUser.Viewer) ([]*UserResponse, error) {
	if !viewer.IsAdmin() {
		return nil, appErrors.Forbidden()
	}

	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to list users", err)
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, ToUserResponse(user))
	}
	return responses, nil
}

// UpdateRole changes another user's role. Admins cannot change their own
// role so the system always keeps at least the acting admin.
func (s *Service) UpdateRole(ctx context.Context, viewer domainUser.Viewer, userID uuid.UUID, req *UpdateRoleRequest) (*UserResponse, error) {
	if !viewer.IsAdmin() {
		return nil, appErrors.Forbidden()
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid input", utils.FieldErrors(err))
	}
	if viewer.ID == userID {
		return nil, appErrors.NewValidationError("You cannot change your own role", map[string]string{"role": "cannot change your own role"})
	}

	role := domainUser.Role(req.Role)
	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, s.userError(err, "Failed to update role")
	}

	// a role change must not survive in old refresh tokens
	if err := s.refreshTokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		logger.Error("Failed to revoke tokens after role change",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	logger.Info("User role updated",
		zap.String("admin_id", viewer.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", string(role)),
		zap.String("event", "user_role_updated"),
	)
	return s.Me(ctx, userID)
}

func (s *Service) SetActive(ctx context.Context, viewer domainUser.Viewer, userID uuid.UUID, req *UpdateStatusRequest) (*UserResponse, error) {
	if !viewer.IsAdmin() {
		return nil, appErrors.Forbidden()
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid input", utils.FieldErrors(err))
	}
	active := *req.IsActive
	if viewer.ID == userID && !active {
		return nil, appErrors.NewValidationError("You cannot deactivate your own account", map[string]string{"is_active": "cannot deactivate yourself"})
	}

	if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
		return nil, s.userError(err, "Failed to update account status")
	}

	if !active {
		if err := s.refreshTokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
			logger.Error("Failed to revoke tokens of deactivated user",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}

	logger.Info("User status updated",
		zap.String("admin_id", viewer.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("is_active", active),
		zap.String("event", "user_status_updated"),
	)
	return s.Me(ctx, userID)
}

// EnsureAdmin creates an Admin account, or promotes and re-activates an
// existing account with the same email and resets its password.
func (s *Service) EnsureAdmin(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := validatePasswordRequest(req, req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if err := s.promoteAdmin(ctx, existing.ID, hashedPassword); err != nil {
			return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to promote account", err)
		}
		existing.PasswordHashed = hashedPassword
		existing.Role = domainUser.RoleAdmin
		existing.IsActive = true
		logger.Info("Existing account promoted to admin",
			zap.String("user_id", existing.ID.String()),
			zap.String("event", "admin_promoted"),
		)
		return ToUserResponse(existing), nil
	case !errors.Is(err, domainUser.ErrUserNotFound):
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to check existing user", err)
	}

	now := s.now()
	admin := &domainUser.User{
		Email:          req.Email,
		PasswordHashed: hashedPassword,
		FirstName:      utils.SanitizeString(req.FirstName),
		LastName:       utils.SanitizeString(req.LastName),
		JobTitle:       utils.SanitizeOptional(req.JobTitle),
		Role:           domainUser.RoleAdmin,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to create admin", err)
	}

	logger.Info("Admin account created",
		zap.String("user_id", admin.ID.String()),
		zap.String("event", "admin_created"),
	)
	return ToUserResponse(admin), nil
}

func (s *Service) promoteAdmin(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}
	if err := s.userRepo.UpdateRole(ctx, userID, domainUser.RoleAdmin); err != nil {
		return err
	}
	return s.userRepo.SetActive(ctx, userID, true)
}

func (s *Service) issueTokens(ctx context.Context, user *domainUser.User) (*AuthResponse, error) {
	tokenPair, err := utils.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.config.JWT.Secret,
		s.config.JWT.ExpiryHours,
		s.config.JWT.RefreshExpiryHours,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	now := s.now()
	refreshToken := &domainUser.RefreshToken{
		UserID:    user.ID,
		Token:     tokenPair.RefreshToken,
		ExpiresAt: now.Add(time.Duration(s.config.JWT.RefreshExpiryHours) * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to store refresh token", err)
	}

	return &AuthResponse{
		User:         ToUserResponse(user),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    tokenPair.ExpiresAt,
	}, nil
}

func (s *Service) loadUser(ctx context.Context, userID uuid.UUID) (*domainUser.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, s.userError(err, "Failed to load user")
	}
	return user, nil
}

func (s *Service) userError(err error, message string) error {
	if errors.Is(err, domainUser.ErrUserNotFound) {
		return appErrors.NewAppError(appErrors.CodeNotFound, "User not found", err)
	}
	return appErrors.NewAppError(appErrors.CodeDatabase, message, err)
}

// validatePasswordRequest runs struct validation and the password policy,
// reporting both as one validation error.
func validatePasswordRequest(req interface{}, password string) error {
	fields := make(map[string]string)
	if err := utils.ValidateStruct(req); err != nil {
		for k, v := range utils.FieldErrors(err) {
			fields[k] = v
		}
	}

	key := "password"
	if _, ok := req.(*ChangePasswordRequest); ok {
		key = "new_password"
	}
	if _, exists := fields[key]; !exists && password != "" {
		if err := utils.ValidatePassword(password); err != nil {
			fields[key] = err.Error()
		}
	}

	if len(fields) > 0 {
		return appErrors.NewValidationError("Invalid input", fields)
	}
	return nil
}

func sanitizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	cleaned := utils.SanitizePhone(*phone)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
