// Package services содержит бизнес-логику работы с пользователями: сопоставление
// идентичности вызывающего с записью в базе, онбординг и смену тарифа.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

// UserRepository определяет методы хранилища для работы с пользователями.
type UserRepository interface {
	UpsertUser(ctx context.Context, identity models.Identity) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	CompleteOnboarding(ctx context.Context, userID string, location models.Location, interests []string) (*models.User, error)
	SetPro(ctx context.Context, userID string, hasPro bool) (*models.User, error)
}

// UserService реализует Identity Resolver и операции над профилем.
type UserService struct {
	repo UserRepository
	log  *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, log *slog.Logger) *UserService {
	return &UserService{
		repo: repo,
		log:  log,
	}
}

// StoreUser возвращает пользователя для идентичности вызывающего, создавая его при первом обращении.
func (s *UserService) StoreUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	const op = "services.users.StoreUser"
	if strings.TrimSpace(identity.TokenIdentifier) == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	if strings.TrimSpace(identity.Name) == "" {
		identity.Name = models.DefaultUserName
	}

	user, err := s.repo.UpsertUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetCurrentUser возвращает профиль вызывающего.
func (s *UserService) GetCurrentUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "services.users.GetCurrentUser"
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// CompleteOnboarding сохраняет город и интересы. Повторяющиеся интересы схлопываются.
func (s *UserService) CompleteOnboarding(ctx context.Context, userID string, req models.OnboardingRequest) (*models.User, error) {
	const op = "services.users.CompleteOnboarding"

	location := models.Location{
		City:    strings.TrimSpace(req.Location.City),
		State:   strings.TrimSpace(req.Location.State),
		Country: strings.TrimSpace(req.Location.Country),
	}
	if location.City == "" || location.Country == "" {
		return nil, fmt.Errorf("%s: %w: city and country are required", op, models.ErrValidation)
	}
	// интересы необязательны, без них подборки строятся по всем категориям
	interests := uniqueNonEmpty(req.Interests)

	user, err := s.repo.CompleteOnboarding(ctx, userID, location, interests)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("onboarding completed", slog.String("user_id", userID), slog.Int("interests", len(interests)))
	return user, nil
}

// UpgradeToPro меняет признак Pro-тарифа.
func (s *UserService) UpgradeToPro(ctx context.Context, userID string, hasPro bool) (*models.User, error) {
	const op = "services.users.UpgradeToPro"
	user, err := s.repo.SetPro(ctx, userID, hasPro)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("plan changed", slog.String("user_id", userID), slog.Bool("has_pro", hasPro))
	return user, nil
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
