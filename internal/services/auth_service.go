package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viajabr/marketplace-backend/internal/models"
	"github.com/viajabr/marketplace-backend/internal/utils"
	"github.com/viajabr/marketplace-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the account persistence surface the auth flow needs
type UserStore interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
}

// AuthService handles registration, login and token refresh
type AuthService struct {
	users      UserStore
	jwtService *jwt.Service
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, jwtService *jwt.Service, bcryptCost int, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a customer account and returns a token pair
func (s *AuthService) Register(req *models.RegisterRequest) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Document:     req.Document,
		Phone:        req.Phone,
		Role:         models.UserRoleCustomer,
	}

	if err := s.users.Create(user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.NewValidationError("email", "already registered")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("Registered user")

	return s.issueTokens(user)
}

// Login authenticates a user and returns a token pair. The device parsed
// from the User-Agent header is logged with the event.
func (s *AuthService) Login(req *models.AuthenticateRequest, userAgent string) (*models.AuthResponse, error) {
	user, err := s.users.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.WithField("email", req.Email).Warn("Failed login attempt")
		return nil, models.ErrInvalidCredentials
	}

	device := utils.ParseUserAgent(userAgent)
	s.logger.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"device_type": device.DeviceType,
		"os":          device.OS,
		"browser":     device.Browser,
	}).Info("User logged in")

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a fresh token pair
func (s *AuthService) Refresh(refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *models.User) (*models.AuthResponse, error) {
	access, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role), user.CompanyID)
	if err != nil {
		return nil, err
	}

	refresh, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
