package services

import (
	"context"
	"errors"
	"strings"

	"open-factcheck/internal/apperr"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService reads user records for authentication and seeding.
// Accounts are managed elsewhere; the core never edits profiles.
type UserService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, log *logger.Logger) *UserService {
	return &UserService{db: db, log: log.With("service", "UserService")}
}

// Get returns an active user by id
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %s not found", id)
	}
	if err != nil {
		return nil, fault(s.log, err, "failed to load user", "user_id", id)
	}
	return &user, nil
}

// Ensure returns the user with the given username, creating it with role if missing
func (s *UserService) Ensure(ctx context.Context, username string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.ValidationField("username", "is required")
	}
	if !role.Valid() {
		return nil, apperr.ValidationField("role", "unknown role")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fault(s.log, err, "failed to look up user", "username", username)
	}

	user = models.User{Username: username, DisplayName: username, Role: role, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fault(s.log, err, "failed to create user", "username", username)
	}
	s.log.Info("Created user", "username", username, "role", role)
	return &user, nil
}
