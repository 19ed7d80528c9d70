package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aqi-map-backend/internal/metrics"
	"aqi-map-backend/internal/models"
	"aqi-map-backend/internal/rewards"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const jwtExpDays = 365

// UserStore persists users and applies rewards transitions atomically
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, fn func(user *models.User) error) error
}

// UserService handles user and rewards business logic
type UserService struct {
	userRepo  UserStore
	jwtSecret string
	vouchers  []models.Voucher
	loc       *time.Location
	now       func() time.Time
}

// NewUserService creates a new user service
func NewUserService(userRepo UserStore, jwtSecret string, vouchers []models.Voucher, loc *time.Location) *UserService {
	if loc == nil {
		loc = time.UTC
	}
	return &UserService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		vouchers:  vouchers,
		loc:       loc,
		now:       time.Now,
	}
}

// CreateUserRequest represents a request to register a contributor
type CreateUserRequest struct {
	Name string `json:"name" validate:"required"`
}

// RedeemRequest represents a request to redeem a voucher
type RedeemRequest struct {
	Voucher string `json:"voucher" validate:"required"`
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     s.now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     s.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// CreateUser registers a contributor and issues their token
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := checkInput(req); err != nil {
		return nil, err
	}

	userID := uuid.New().String()

	token, err := s.GenerateJWT(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user := &models.User{
		ID:        userID,
		Name:      req.Name,
		Vouchers:  []string{},
		CreatedAt: s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.Token = token
	return user, nil
}

// GetUser returns the current state of a contributor
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return s.userRepo.GetByID(ctx, userID)
}

// Contribute awards points for today's contribution
func (s *UserService) Contribute(ctx context.Context, userID string) (*rewards.Contribution, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	today := rewards.Day(s.now(), s.loc)

	var outcome rewards.Contribution
	err := s.userRepo.Update(ctx, userID, func(user *models.User) error {
		next, res, err := rewards.Contribute(*user, today)
		if err != nil {
			return err
		}
		*user = next
		outcome = res
		return nil
	})
	if err != nil {
		recordTransition("contribute", err)
		return nil, err
	}

	recordTransition("contribute", nil)
	return &outcome, nil
}

// Redeem spends points on a catalog voucher
func (s *UserService) Redeem(ctx context.Context, userID string, req RedeemRequest) (*rewards.Redemption, error) {
	if err := checkInput(req); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	voucher, ok := s.findVoucher(req.Voucher)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVoucher, req.Voucher)
	}

	var outcome rewards.Redemption
	err := s.userRepo.Update(ctx, userID, func(user *models.User) error {
		next, res, err := rewards.Redeem(*user, voucher)
		if err != nil {
			return err
		}
		*user = next
		outcome = res
		return nil
	})
	if err != nil {
		recordTransition("redeem", err)
		return nil, err
	}

	recordTransition("redeem", nil)
	return &outcome, nil
}

// Vouchers returns the redeemable catalog
func (s *UserService) Vouchers() []models.Voucher {
	out := make([]models.Voucher, len(s.vouchers))
	copy(out, s.vouchers)
	return out
}

func (s *UserService) findVoucher(name string) (models.Voucher, bool) {
	for _, v := range s.vouchers {
		if v.Name == name {
			return v, true
		}
	}
	return models.Voucher{}, false
}

func recordTransition(operation string, err error) {
	outcome := "ok"
	var insufficient *rewards.InsufficientPointsError
	switch {
	case err == nil:
	case errors.Is(err, rewards.ErrAlreadyContributed):
		outcome = "already_contributed"
	case errors.As(err, &insufficient):
		outcome = "insufficient_points"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.RewardTransitions.WithLabelValues(operation, outcome).Inc()
}
