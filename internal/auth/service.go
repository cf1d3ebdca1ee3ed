package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/card-tracker/backend/internal/models"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPw string, role models.Role) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Revoker records logged-out tokens.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// BootstrapAccount is a privileged account created on first boot.
type BootstrapAccount struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

const minPasswordLen = 6

// Service implements registration, login and logout.
type Service struct {
	users   UserStore
	tokens  *TokenManager
	revoker Revoker
	log     *zap.Logger
	cost    int
}

func NewService(users UserStore, tokens *TokenManager, revoker Revoker, log *zap.Logger) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		log:     log.Named("auth"),
		cost:    bcrypt.DefaultCost,
	}
}

// Register creates a non-privileged account and signs the caller in.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	var errs []models.FieldError
	if req.Username == "" || len(req.Username) > 50 {
		errs = append(errs, models.FieldError{Field: "username", Message: "required, at most 50 characters"})
	}
	if !strings.Contains(req.Email, "@") {
		errs = append(errs, models.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(req.Password) < minPasswordLen {
		errs = append(errs, models.FieldError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLen)})
	}
	if !req.Role.Valid() || req.Role.Privileged() {
		errs = append(errs, models.FieldError{Field: "role", Message: "must be one of user, editor, reader"})
	}
	if len(errs) > 0 {
		return nil, models.NewValidationErrors(errs)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, req.Username, req.Email, string(hashed), req.Role)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", req.Username, err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return s.issue(user)
}

// Login checks credentials. Unknown users and wrong passwords yield the
// same error.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
	}

	return s.issue(user)
}

// Logout revokes the caller's current token.
func (s *Service) Logout(ctx context.Context, id Identity) error {
	if err := s.revoker.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*models.Summary, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	sum := user.Summary()
	return &sum, nil
}

// Bootstrap creates the given accounts when missing. Failures are logged
// and do not stop startup.
func (s *Service) Bootstrap(ctx context.Context, accounts []BootstrapAccount) {
	for _, acc := range accounts {
		_, err := s.users.GetUserByUsername(ctx, acc.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			s.log.Error("bootstrap lookup failed", zap.String("username", acc.Username), zap.Error(err))
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(acc.Password), s.cost)
		if err != nil {
			s.log.Error("bootstrap hash failed", zap.String("username", acc.Username), zap.Error(err))
			continue
		}
		if _, err := s.users.CreateUser(ctx, acc.Username, acc.Email, string(hashed), acc.Role); err != nil {
			s.log.Error("bootstrap create failed", zap.String("username", acc.Username), zap.Error(err))
			continue
		}
		s.log.Info("bootstrap account created", zap.String("username", acc.Username), zap.String("role", string(acc.Role)))
	}
}

func (s *Service) issue(user *models.User) (*models.AuthResponse, error) {
	token, id, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		Token:     token,
		ExpiresAt: id.ExpiresAt,
		User:      user.Summary(),
	}, nil
}
