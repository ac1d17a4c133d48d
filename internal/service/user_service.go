package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"formpilot/internal/cache"
	"formpilot/internal/model"
	"formpilot/internal/repository"

	"go.uber.org/zap"
)

// UserService manages accounts and their credit balance
type UserService struct {
	users  repository.UserRepo
	usage  cache.UsageCache
	logger *zap.Logger
}

// NewUserService creates a new user service. usage may be nil.
func NewUserService(users repository.UserRepo, usage cache.UsageCache, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		usage:  usage,
		logger: logger.Named("users"),
	}
}

// Get returns one account
func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List returns all accounts, newest first
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.users.List(ctx)
}

// Create adds an active account with the given credit allowance
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || req.Password == "" {
		return nil, fmt.Errorf("user id and password are required")
	}
	existing, err := s.users.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	user := &model.User{
		UserID:           req.UserID,
		Name:             req.Name,
		Email:            req.Email,
		Contact:          req.Contact,
		PasswordHash:     hash,
		Role:             role,
		Status:           model.UserActive,
		Plan:             req.Plan,
		CreditsRemaining: max(req.Credits, 0),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user created", zap.String("user", user.UserID), zap.String("role", string(role)))
	return user, nil
}

// Update applies the non-nil fields of req
func (s *UserService) Update(ctx context.Context, userID string, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Contact != nil {
		user.Contact = *req.Contact
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.Plan != nil {
		user.Plan = *req.Plan
	}
	if req.Password != nil {
		hash, err := HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if req.AddCredits == nil {
		return user, nil
	}

	updated, err := s.users.AddCredits(ctx, userID, *req.AddCredits)
	if err != nil {
		return nil, fmt.Errorf("failed to update credits: %w", err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	s.logger.Info("credits adjusted", zap.String("user", userID), zap.Int("delta", *req.AddCredits),
		zap.Int("remaining", updated.CreditsRemaining))
	return updated, nil
}

// Deduct consumes count credits and returns the remaining balance
func (s *UserService) Deduct(ctx context.Context, userID string, count int) (int, error) {
	user, err := s.users.DeductCredits(ctx, userID, count)
	if errors.Is(err, repository.ErrInsufficientBalance) {
		return 0, fmt.Errorf("%w: cannot deduct %d", ErrCreditExceeded, count)
	}
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}

	if s.usage != nil {
		if err := s.usage.Add(ctx, userID, count); err != nil {
			s.logger.Warn("usage tally failed", zap.String("user", userID), zap.Error(err))
		}
	}
	return user.CreditsRemaining, nil
}

// Usage returns the accounts with the most submissions
func (s *UserService) Usage(ctx context.Context, limit int) ([]cache.UsageEntry, error) {
	if s.usage == nil {
		return []cache.UsageEntry{}, nil
	}
	return s.usage.Top(ctx, limit)
}
