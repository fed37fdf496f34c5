package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"rx-logistics/internal/config"
	domainUser "rx-logistics/internal/domain/user"
	"rx-logistics/internal/domain/user/mocks"
	appErrors "rx-logistics/pkg/errors"
	"rx-logistics/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (*Service, *mocks.MockRepository, *mocks.MockRefreshTokenRepository) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockRepository(ctrl)
	tokens := mocks.NewMockRefreshTokenRepository(ctrl)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret, ExpiryHours: 1, RefreshExpiryHours: 24}}
	return NewService(users, tokens, cfg), users, tokens
}

func requireCode(t *testing.T, err error, code string) *appErrors.AppError {
	t.Helper()
	var appErr *appErrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		Email:           "  Jane.Doe@Symbria.com ",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
		FirstName:       "Jane",
		LastName:        "Doe",
	}
}

func activeUser(t *testing.T, role domainUser.Role, password string) *domainUser.User {
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	return &domainUser.User{
		ID:             uuid.New(),
		Email:          "jane.doe@symbria.com",
		PasswordHashed: hash,
		FirstName:      "Jane",
		LastName:       "Doe",
		Role:           role,
		IsActive:       true,
	}
}

func TestRegister_DefaultsToDriver(t *testing.T) {
	svc, users, tokens := newTestService(t)

	users.EXPECT().GetByEmail(gomock.Any(), "jane.doe@symbria.com").Return(nil, domainUser.ErrUserNotFound)
	users.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *domainUser.User) error {
			assert.Equal(t, domainUser.RoleDriver, u.Role)
			assert.True(t, u.IsActive)
			assert.True(t, utils.CheckPassword(u.PasswordHashed, "Secret123"))
			u.ID = uuid.New()
			return nil
		})
	tokens.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := svc.Register(context.Background(), registerRequest())

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", resp.User.FullName)
	assert.Equal(t, "Driver", resp.User.Role)

	claims, err := utils.ValidateTokenOfType(resp.AccessToken, testSecret, utils.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "Driver", claims.Role)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *RegisterRequest)
		field  string
	}{
		{"confirmation mismatch", func(r *RegisterRequest) { r.ConfirmPassword = "Secret124" }, "confirm_password"},
		{"weak password", func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "secretsecret", "secretsecret" }, "password"},
		{"missing first name", func(r *RegisterRequest) { r.FirstName = "" }, "first_name"},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			req := registerRequest()
			tt.mutate(req)

			_, err := svc.Register(context.Background(), req)

			appErr := requireCode(t, err, appErrors.CodeValidation)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, users, _ := newTestService(t)

	users.EXPECT().GetByEmail(gomock.Any(), "jane.doe@symbria.com").Return(&domainUser.User{ID: uuid.New()}, nil)

	_, err := svc.Register(context.Background(), registerRequest())

	requireCode(t, err, appErrors.CodeConflict)
}

func TestLogin(t *testing.T) {
	u := activeUser(t, domainUser.RoleManagement, "Secret123")

	t.Run("success", func(t *testing.T) {
		svc, users, tokens := newTestService(t)
		users.EXPECT().GetByEmail(gomock.Any(), u.Email).Return(u, nil)
		tokens.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, rt *domainUser.RefreshToken) error {
				assert.Equal(t, u.ID, rt.UserID)
				assert.True(t, rt.ExpiresAt.After(time.Now().Add(23*time.Hour)))
				return nil
			})

		resp, err := svc.Login(context.Background(), &LoginRequest{Email: "Jane.Doe@symbria.com", Password: "Secret123"})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "Management", resp.User.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.EXPECT().GetByEmail(gomock.Any(), u.Email).Return(u, nil)

		_, err := svc.Login(context.Background(), &LoginRequest{Email: u.Email, Password: "nope"})

		requireCode(t, err, appErrors.CodeUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.EXPECT().GetByEmail(gomock.Any(), "who@symbria.com").Return(nil, domainUser.ErrUserNotFound)

		_, err := svc.Login(context.Background(), &LoginRequest{Email: "who@symbria.com", Password: "Secret123"})

		requireCode(t, err, appErrors.CodeUnauthorized)
	})

	t.Run("inactive", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		inactive := *u
		inactive.IsActive = false
		users.EXPECT().GetByEmail(gomock.Any(), u.Email).Return(&inactive, nil)

		_, err := svc.Login(context.Background(), &LoginRequest{Email: u.Email, Password: "Secret123"})

		requireCode(t, err, appErrors.CodeForbidden)
	})
}

func TestRefresh_RotatesWithCurrentRole(t *testing.T) {
	svc, users, tokens := newTestService(t)
	u := activeUser(t, domainUser.RoleAdmin, "Secret123")

	pair, err := utils.GenerateTokenPair(u.ID, u.Email, string(domainUser.RoleDriver), testSecret, 1, 24)
	require.NoError(t, err)

	stored := &domainUser.RefreshToken{ID: uuid.New(), UserID: u.ID, Token: pair.RefreshToken, ExpiresAt: time.Now().Add(time.Hour)}

	gomock.InOrder(
		tokens.EXPECT().GetByToken(gomock.Any(), pair.RefreshToken).Return(stored, nil),
		users.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil),
		tokens.EXPECT().Revoke(gomock.Any(), stored.ID).Return(nil),
		tokens.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
	)

	resp, err := svc.Refresh(context.Background(), &RefreshRequest{RefreshToken: pair.RefreshToken})

	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, resp.RefreshToken)

	claims, err := utils.ValidateToken(resp.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "Admin", claims.Role)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	pair, err := utils.GenerateTokenPair(uuid.New(), "a@symbria.com", "Driver", testSecret, 1, 24)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), &RefreshRequest{RefreshToken: pair.AccessToken})

	requireCode(t, err, appErrors.CodeUnauthorized)
}

func TestRefresh_AlreadySpent(t *testing.T) {
	svc, users, tokens := newTestService(t)
	u := activeUser(t, domainUser.RoleDriver, "Secret123")

	pair, err := utils.GenerateTokenPair(u.ID, u.Email, "Driver", testSecret, 1, 24)
	require.NoError(t, err)
	stored := &domainUser.RefreshToken{ID: uuid.New(), UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}

	tokens.EXPECT().GetByToken(gomock.Any(), pair.RefreshToken).Return(stored, nil)
	users.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil)
	tokens.EXPECT().Revoke(gomock.Any(), stored.ID).Return(domainUser.ErrTokenInvalid)

	_, err = svc.Refresh(context.Background(), &RefreshRequest{RefreshToken: pair.RefreshToken})

	requireCode(t, err, appErrors.CodeUnauthorized)
}

func TestLogout(t *testing.T) {
	userID := uuid.New()

	t.Run("everywhere", func(t *testing.T) {
		svc, _, tokens := newTestService(t)
		tokens.EXPECT().RevokeAllUserTokens(gomock.Any(), userID).Return(nil)

		require.NoError(t, svc.Logout(context.Background(), userID, &LogoutRequest{}))
	})

	t.Run("single session", func(t *testing.T) {
		svc, _, tokens := newTestService(t)
		stored := &domainUser.RefreshToken{ID: uuid.New(), UserID: userID}
		tokens.EXPECT().GetByToken(gomock.Any(), "rt").Return(stored, nil)
		tokens.EXPECT().Revoke(gomock.Any(), stored.ID).Return(nil)

		require.NoError(t, svc.Logout(context.Background(), userID, &LogoutRequest{RefreshToken: "rt"}))
	})

	t.Run("someone else's token", func(t *testing.T) {
		svc, _, tokens := newTestService(t)
		tokens.EXPECT().GetByToken(gomock.Any(), "rt").Return(&domainUser.RefreshToken{ID: uuid.New(), UserID: uuid.New()}, nil)

		err := svc.Logout(context.Background(), userID, &LogoutRequest{RefreshToken: "rt"})

		requireCode(t, err, appErrors.CodeUnauthorized)
	})
}

func TestChangePassword(t *testing.T) {
	u := activeUser(t, domainUser.RoleDriver, "Secret123")

	t.Run("wrong current password", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil)

		err := svc.ChangePassword(context.Background(), u.ID, &ChangePasswordRequest{
			OldPassword: "Wrong1234", NewPassword: "Newpass123", ConfirmPassword: "Newpass123",
		})

		appErr := requireCode(t, err, appErrors.CodeValidation)
		assert.Contains(t, appErr.Fields, "old_password")
	})

	t.Run("revokes sessions", func(t *testing.T) {
		svc, users, tokens := newTestService(t)
		users.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil)
		users.EXPECT().UpdatePassword(gomock.Any(), u.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, hash string) error {
				assert.True(t, utils.CheckPassword(hash, "Newpass123"))
				return nil
			})
		tokens.EXPECT().RevokeAllUserTokens(gomock.Any(), u.ID).Return(nil)

		require.NoError(t, svc.ChangePassword(context.Background(), u.ID, &ChangePasswordRequest{
			OldPassword: "Secret123", NewPassword: "Newpass123", ConfirmPassword: "Newpass123",
		}))
	})
}

func TestUpdateProfile(t *testing.T) {
	svc, users, _ := newTestService(t)
	u := activeUser(t, domainUser.RoleDriver, "Secret123")

	users.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil)
	users.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := svc.UpdateProfile(context.Background(), u.ID, &UpdateProfileRequest{
		LastName: utils.StringPtr(" Smith "),
		JobTitle: utils.StringPtr("Delivery Driver"),
		Phone:    utils.StringPtr("(555) 123-4567"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", resp.FullName)
	require.NotNil(t, resp.JobTitle)
	assert.Equal(t, "Delivery Driver", *resp.JobTitle)
}

func TestMe_NotFound(t *testing.T) {
	svc, users, _ := newTestService(t)
	id := uuid.New()
	users.EXPECT().GetByID(gomock.Any(), id).Return(nil, domainUser.ErrUserNotFound)

	_, err := svc.Me(context.Background(), id)

	requireCode(t, err, appErrors.CodeNotFound)
}

func TestActiveAccount(t *testing.T) {
	t.Run("returns the stored role", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		u := activeUser(t, domainUser.RoleManagement, "Secret123")
		users.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil)

		got, err := svc.ActiveAccount(context.Background(), u.ID)

		require.NoError(t, err)
		assert.Equal(t, domainUser.RoleManagement, got.Role)
	})

	t.Run("deactivated", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		u := activeUser(t, domainUser.RoleDriver, "Secret123")
		u.IsActive = false
		users.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil)

		_, err := svc.ActiveAccount(context.Background(), u.ID)

		appErr := requireCode(t, err, appErrors.CodeUnauthorized)
		assert.ErrorIs(t, appErr, domainUser.ErrUserInactive)
	})

	t.Run("removed", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		id := uuid.New()
		users.EXPECT().GetByID(gomock.Any(), id).Return(nil, domainUser.ErrUserNotFound)

		_, err := svc.ActiveAccount(context.Background(), id)

		requireCode(t, err, appErrors.CodeUnauthorized)
	})

	t.Run("database failure", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		id := uuid.New()
		users.EXPECT().GetByID(gomock.Any(), id).Return(nil, errors.New("connection reset"))

		_, err := svc.ActiveAccount(context.Background(), id)

		requireCode(t, err, appErrors.CodeDatabase)
	})
}

func TestAdminOperations(t *testing.T) {
	admin := domainUser.Viewer{ID: uuid.New(), Role: domainUser.RoleAdmin}
	driver := domainUser.Viewer{ID: uuid.New(), Role: domainUser.RoleDriver}
	target := &domainUser.User{ID: uuid.New(), FirstName: "Sam", Role: domainUser.RoleManagement, IsActive: true}

	t.Run("list requires admin", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.ListUsers(context.Background(), driver)
		requireCode(t, err, appErrors.CodeForbidden)
	})

	t.Run("list", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.EXPECT().GetAll(gomock.Any()).Return([]*domainUser.User{target}, nil)

		list, err := svc.ListUsers(context.Background(), admin)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("change role", func(t *testing.T) {
		svc, users, tokens := newTestService(t)
		users.EXPECT().UpdateRole(gomock.Any(), target.ID, domainUser.RoleManagement).Return(nil)
		tokens.EXPECT().RevokeAllUserTokens(gomock.Any(), target.ID).Return(nil)
		users.EXPECT().GetByID(gomock.Any(), target.ID).Return(target, nil)

		resp, err := svc.UpdateRole(context.Background(), admin, target.ID, &UpdateRoleRequest{Role: "Management"})
		require.NoError(t, err)
		assert.Equal(t, "Management", resp.Role)
	})

	t.Run("cannot change own role", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.UpdateRole(context.Background(), admin, admin.ID, &UpdateRoleRequest{Role: "Driver"})
		requireCode(t, err, appErrors.CodeValidation)
	})

	t.Run("invalid role", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.UpdateRole(context.Background(), admin, target.ID, &UpdateRoleRequest{Role: "Owner"})
		appErr := requireCode(t, err, appErrors.CodeValidation)
		assert.Contains(t, appErr.Fields, "role")
	})

	t.Run("deactivate revokes sessions", func(t *testing.T) {
		svc, users, tokens := newTestService(t)
		inactive := false
		users.EXPECT().SetActive(gomock.Any(), target.ID, false).Return(nil)
		tokens.EXPECT().RevokeAllUserTokens(gomock.Any(), target.ID).Return(nil)
		users.EXPECT().GetByID(gomock.Any(), target.ID).Return(target, nil)

		_, err := svc.SetActive(context.Background(), admin, target.ID, &UpdateStatusRequest{IsActive: &inactive})
		require.NoError(t, err)
	})

	t.Run("cannot deactivate self", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		inactive := false
		_, err := svc.SetActive(context.Background(), admin, admin.ID, &UpdateStatusRequest{IsActive: &inactive})
		requireCode(t, err, appErrors.CodeValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		active := true
		users.EXPECT().SetActive(gomock.Any(), target.ID, true).Return(domainUser.ErrUserNotFound)

		_, err := svc.SetActive(context.Background(), admin, target.ID, &UpdateStatusRequest{IsActive: &active})
		requireCode(t, err, appErrors.CodeNotFound)
	})
}

func TestEnsureAdmin(t *testing.T) {
	t.Run("creates", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.EXPECT().GetByEmail(gomock.Any(), "jane.doe@symbria.com").Return(nil, domainUser.ErrUserNotFound)
		users.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u *domainUser.User) error {
				assert.Equal(t, domainUser.RoleAdmin, u.Role)
				return nil
			})

		resp, err := svc.EnsureAdmin(context.Background(), registerRequest())
		require.NoError(t, err)
		assert.Equal(t, "Admin", resp.Role)
	})

	t.Run("promotes existing", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		existing := &domainUser.User{ID: uuid.New(), Email: "jane.doe@symbria.com", Role: domainUser.RoleDriver}

		users.EXPECT().GetByEmail(gomock.Any(), existing.Email).Return(existing, nil)
		users.EXPECT().UpdatePassword(gomock.Any(), existing.ID, gomock.Any()).Return(nil)
		users.EXPECT().UpdateRole(gomock.Any(), existing.ID, domainUser.RoleAdmin).Return(nil)
		users.EXPECT().SetActive(gomock.Any(), existing.ID, true).Return(nil)

		resp, err := svc.EnsureAdmin(context.Background(), registerRequest())
		require.NoError(t, err)
		assert.Equal(t, "Admin", resp.Role)
		assert.True(t, resp.IsActive)
	})
}

func TestCleanupExpiredTokens(t *testing.T) {
	svc, _, tokens := newTestService(t)
	tokens.EXPECT().DeleteExpired(gomock.Any(), 24*time.Hour).Return(int64(3), nil)

	job := svc.TokenCleanupJob()
	assert.Equal(t, "refresh-token-cleanup", job.Name())
	require.NoError(t, job.Execute(context.Background()))

	tokens.EXPECT().DeleteExpired(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("db down"))
	_, err := svc.CleanupExpiredTokens(context.Background())
	assert.Error(t, err)
}
