package service

import (
	"context"
	"fmt"
	"log/slog"
)

// AdminAuthenticator проверяет секрет администратора и выпускает токены.
type AdminAuthenticator interface {
	CheckSecret(secret string) bool
	NewToken() (string, error)
}

// AdminService определяет вход администратора.
type AdminService interface {
	Login(ctx context.Context, secret string) (string, error)
}

type adminService struct {
	log  *slog.Logger
	auth AdminAuthenticator
}

func NewAdminService(log *slog.Logger, auth AdminAuthenticator) AdminService {
	return &adminService{
		log:  log,
		auth: auth,
	}
}

// Login сверяет секрет администратора и после успешной проверки генерирует JWT-токен.
func (a *adminService) Login(ctx context.Context, secret string) (string, error) {
	const op = "service.AdminService.Login"
	logger := a.log.With(slog.String("op", op))

	if secret == "" {
		return "", fmt.Errorf("%s: %w", op, newError(ErrInvalidArgument, "Secret is required"))
	}
	if !a.auth.CheckSecret(secret) {
		logger.Warn("invalid admin secret")
		return "", fmt.Errorf("%s: %w", op, newError(ErrUnauthorized, "Unauthorized"))
	}

	token, err := a.auth.NewToken()
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("admin logged in")
	return token, nil
}
