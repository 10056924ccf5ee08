package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/linemk/storefront/internal/adminauth"
	"github.com/linemk/storefront/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminLogin(t *testing.T) {
	auth := adminauth.New("admin123", "", "jwtsecret", time.Hour)
	svc := service.NewAdminService(discardLogger(), auth)

	token, err := svc.Login(context.Background(), "admin123")
	require.NoError(t, err)
	assert.NoError(t, auth.VerifyToken(token))
	assert.True(t, auth.Authorize("Bearer "+token))
}

func TestAdminLogin_WrongSecret(t *testing.T) {
	svc := service.NewAdminService(discardLogger(), adminauth.New("admin123", "", "jwtsecret", time.Hour))

	_, err := svc.Login(context.Background(), "nope")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = svc.Login(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
}
