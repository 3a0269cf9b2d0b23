package service

import (
	"context"
	"testing"
	"time"

	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports/mocks"
	"relief-disbursement-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc       *AuthServiceImpl
	adminRepo *mocks.MockAdminRepository
	hashSvc   *mocks.MockHashService
	tokenSvc  *mocks.MockTokenService
	ctrl      *gomock.Controller
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		adminRepo: mocks.NewMockAdminRepository(ctrl),
		hashSvc:   mocks.NewMockHashService(ctrl),
		tokenSvc:  mocks.NewMockTokenService(ctrl),
		ctrl:      ctrl,
	}
	d.svc = NewAuthService(d.adminRepo, d.hashSvc, d.tokenSvc)
	return d
}

func activeAdmin() *domain.Admin {
	return &domain.Admin{
		ID:           uuid.New(),
		Username:     "ops-admin",
		PasswordHash: "$argon2id$hash",
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestAuthService_Login(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	admin := activeAdmin()
	expiresAt := time.Now().Add(24 * time.Hour)
	d.adminRepo.EXPECT().GetByUsername(gomock.Any(), "ops-admin").Return(admin, nil)
	d.hashSvc.EXPECT().Verify("correct-password", admin.PasswordHash).Return(true, nil)
	d.tokenSvc.EXPECT().Generate(admin.ID, "ops-admin").Return("signed.jwt.token", expiresAt, nil)

	token, gotExpiry, err := d.svc.Login(context.Background(), "ops-admin", "correct-password")
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", token)
	assert.Equal(t, expiresAt, gotExpiry)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	admin := activeAdmin()
	d.adminRepo.EXPECT().GetByUsername(gomock.Any(), "ops-admin").Return(admin, nil)
	d.hashSvc.EXPECT().Verify("wrong-password", admin.PasswordHash).Return(false, nil)

	_, _, err := d.svc.Login(context.Background(), "ops-admin", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", err.(*apperror.AppError).Code)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	d.adminRepo.EXPECT().GetByUsername(gomock.Any(), "ghost").Return(nil, nil)

	_, _, err := d.svc.Login(context.Background(), "ghost", "password")
	require.Error(t, err)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", err.(*apperror.AppError).Code)
}

func TestAuthService_Login_DeactivatedAccount(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	admin := activeAdmin()
	admin.IsActive = false
	d.adminRepo.EXPECT().GetByUsername(gomock.Any(), "ops-admin").Return(admin, nil)

	_, _, err := d.svc.Login(context.Background(), "ops-admin", "password")
	require.Error(t, err)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", err.(*apperror.AppError).Code)
}
