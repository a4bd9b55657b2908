package service

import (
	"context"
	"fmt"

	"github.com/pribylovaa/draftmail/internal/models"
)

func (s *Service) Profile(ctx context.Context) (models.UserProfile, error) {
	const op = "service.account.Profile"

	p, err := s.api.Profile(ctx)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// UpdateProfile меняет отображаемое имя.
func (s *Service) UpdateProfile(ctx context.Context, name string) (models.MessageResponse, error) {
	const op = "service.account.UpdateProfile"

	name, err := validateName(name)
	if err != nil {
		return models.MessageResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.api.UpdateProfile(ctx, models.UpdateProfileRequest{Name: name})
	if err != nil {
		return models.MessageResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// ChangePassword проверяет только новый пароль; текущий сверяет бэкенд.
func (s *Service) ChangePassword(ctx context.Context, current, next string) (models.MessageResponse, error) {
	const op = "service.account.ChangePassword"

	if current == "" {
		return models.MessageResponse{}, fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}
	if err := validatePassword(next); err != nil {
		return models.MessageResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.api.ChangePassword(ctx, models.ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
	if err != nil {
		return models.MessageResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}
