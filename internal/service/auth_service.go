package service

import (
	"context"
	"errors"
	"time"

	"unipark/internal/db"
	"unipark/internal/entities"
	apperr "unipark/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users  UserStore
	secret string
	log    zerolog.Logger
}

func NewAuthService(users UserStore, secret string, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, secret: secret, log: log}
}

// Register creates a student account. Staff and admin accounts are seeded
// out of band.
func (s *AuthService) Register(ctx context.Context, req entities.RegisterRequest) (*db.User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperr.NewHTTPError(400, "email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &db.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         db.RoleStudent,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info().Int("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.NewHTTPError(401, "invalid credentials")
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperr.NewHTTPError(401, "invalid credentials")
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}
