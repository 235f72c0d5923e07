package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pricecheck/backend/internal/domain"
	"github.com/pricecheck/backend/internal/logger"
)

// SubscriptionService manages email signups
type SubscriptionService struct {
	repo     domain.SubscriberRepository
	validate *validator.Validate
	logger   logger.Logger
	mu       sync.Mutex
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(repo domain.SubscriberRepository, log logger.Logger) *SubscriptionService {
	if log == nil {
		log = logger.NewNop()
	}
	return &SubscriptionService{
		repo:     repo,
		validate: validator.New(),
		logger:   log,
	}
}

// Subscribe records email and returns the normalized address.
// Duplicate detection ignores case; the stored form preserves it.
func (s *SubscriptionService) Subscribe(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", domain.ErrEmailRequired
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return "", domain.ErrInvalidEmail
	}

	// check and append under one lock
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.List(ctx)
	if err != nil {
		return "", err
	}
	for _, e := range existing {
		if strings.EqualFold(e, email) {
			return "", domain.ErrAlreadySubscribed
		}
	}

	if err := s.repo.Append(ctx, email); err != nil {
		s.logger.Error("Failed to save subscriber", logger.Error(err))
		return "", err
	}

	s.logger.Info("New subscriber", logger.Int("total", len(existing)+1))
	return email, nil
}

// List returns all subscriber addresses
func (s *SubscriptionService) List(ctx context.Context) ([]string, error) {
	return s.repo.List(ctx)
}

// Export returns the subscriber file contents
func (s *SubscriptionService) Export(ctx context.Context) ([]byte, error) {
	data, err := s.repo.Export(ctx)
	if err != nil && !errors.Is(err, domain.ErrSubscriberFileNotFound) {
		s.logger.Error("Failed to export subscribers", logger.Error(err))
	}
	return data, err
}
