package service

import (
	"errors"
	"fmt"
	"time"

	"sliptrack/internal/models"
	"sliptrack/internal/repository"
	"sliptrack/internal/security"
	"sliptrack/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo        *repository.UserRepository
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new password-based account
func (s *AuthService) Register(email, password, name string) (*models.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login authenticates a user and opens a session
func (s *AuthService) Login(email, password string) (*models.User, *models.Session, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.CreateSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// ResolveOAuthUser finds or creates the account for an external
// identity. An existing account with the same email is reused so a
// teacher who registered with a password can sign in with Google too.
func (s *AuthService) ResolveOAuthUser(provider, subject, email, name string) (*models.User, error) {
	user, err := s.userRepo.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to look up oauth user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	if email != "" {
		user, err = s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up user by email: %w", err)
		}
		if user != nil {
			return user, nil
		}
	}

	if name == "" {
		name = email
	}
	user, err = s.userRepo.CreateOAuthUser(email, name, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}
	return user, nil
}

// CreateSession opens a new session for a user
func (s *AuthService) CreateSession(userID int64) (*models.Session, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)
	session, err := s.userRepo.CreateSession(sessionID, userID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession checks a session and returns its user
func (s *AuthService) ValidateSession(sessionID string) (*models.User, *models.Session, error) {
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		// Best effort removal, the cleanup goroutine catches leftovers
		s.userRepo.DeleteSession(sessionID)
		return nil, nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrSessionNotFound
	}
	return user, session, nil
}

// Logout removes a session
func (s *AuthService) Logout(sessionID string) error {
	return s.userRepo.DeleteSession(sessionID)
}

// CleanupExpiredSessions removes all expired sessions
func (s *AuthService) CleanupExpiredSessions() error {
	return s.userRepo.DeleteExpiredSessions()
}

// SaveProfile stores the onboarding answers for a user
func (s *AuthService) SaveProfile(userID int64, schoolName, region, role string) error {
	if err := validation.ValidateProfile(schoolName, region, role); err != nil {
		return err
	}
	return s.userRepo.UpsertProfile(userID, schoolName, region, role)
}

// GetProfile retrieves the onboarding profile, nil when the user has
// not completed onboarding yet
func (s *AuthService) GetProfile(userID int64) (*models.Profile, error) {
	return s.userRepo.GetProfile(userID)
}
