package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/credits"
	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/models"
	"github.com/capycoin/perkstore/internal/transport"
)

var ErrUnauthorized = errors.New("unauthorized")

// initialCredits is the starting grant a user receives on first login.
var initialCredits = map[string]float64{
	models.RoleIntern:   100,
	models.RoleEmployee: 200,
	models.RoleSenior:   300,
	models.RoleAdmin:    1000,
}

func InitialCredits(role string) float64 {
	if amount, ok := initialCredits[role]; ok {
		return amount
	}
	return initialCredits[models.RoleIntern]
}

type Service struct {
	DB            *gorm.DB
	Credits       *credits.Service
	JWTSecret     []byte
	RefreshSecret []byte
}

type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// DevLogin authenticates by email alone: the external identity provider is
// bypassed in development, so an unknown email provisions a fresh employee
// account with its initial credit grant.
func (s *Service) DevLogin(ctx context.Context, req transport.DevLoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email required", domain.ErrValidation)
	}

	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		name := req.Name
		if name == "" {
			name = displayNameFromEmail(email)
		}
		user = models.User{
			Email:     email,
			Name:      name,
			Role:      models.RoleEmployee,
			StartDate: time.Now().UTC(),
			IsActive:  true,
		}
		if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		desc := fmt.Sprintf("Initial credits for %s", user.Role)
		if _, err := s.Credits.Grant(ctx, user.ID, InitialCredits(user.Role), desc); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: account disabled", ErrUnauthorized)
	}

	return s.issueTokens(ctx, &user)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// access/refresh pair is issued.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	claims, err := RefreshClaimsFromToken(rawToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	var stored models.RefreshToken
	if err := s.DB.WithContext(ctx).Where("token = ?", rawToken).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: refresh token not found", ErrUnauthorized)
		}
		return nil, err
	}
	if stored.Revoked {
		return nil, fmt.Errorf("%w: refresh token revoked", ErrUnauthorized)
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", ErrUnauthorized)
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
	}

	if err := s.DB.WithContext(ctx).Model(&stored).Update("revoked", true).Error; err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, &user)
}

// Logout revokes the presented refresh token; access tokens expire on their own.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	return s.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ?", rawToken).
		Update("revoked", true).Error
}

// DevUsers lists active accounts for the development login picker.
func (s *Service) DevUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("email ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}

func displayNameFromEmail(email string) string {
	local := strings.SplitN(email, "@", 2)[0]
	if local == "" {
		return email
	}
	return strings.ToUpper(local[:1]) + local[1:]
}

func (s *Service) issueTokens(ctx context.Context, user *models.User) (*LoginResult, error) {
	now := time.Now().UTC()

	access, err := SignAccessToken(user.ID, user.Role, s.JWTSecret, now.Add(AccessTokenTTL))
	if err != nil {
		return nil, err
	}

	refreshExp := now.Add(RefreshTokenTTL)
	refresh, err := SignRefreshToken(user.ID, s.RefreshSecret, refreshExp)
	if err != nil {
		return nil, err
	}

	stored := models.RefreshToken{Token: refresh, UserID: user.ID, ExpiresAt: refreshExp}
	if err := s.DB.WithContext(ctx).Create(&stored).Error; err != nil {
		return nil, err
	}

	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
