package usecase

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"oracle-bot-backend/pkg/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthUsecase guards the admin API. There is a single operator account:
// login exchanges the admin password for a JWT, and ValidateToken accepts
// either that JWT or the static token from the environment.
type AuthUsecase interface {
	Login(password string) (token string, expiresAt time.Time, err error)
	ValidateToken(token string) error
}

type authUsecase struct {
	config *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(cfg *config.Config) AuthUsecase {
	return &authUsecase{config: cfg}
}

func (u *authUsecase) Login(password string) (string, time.Time, error) {
	if u.config.AdminPasswordHash == "" {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(
		[]byte(u.config.AdminPasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(u.config.JWTAccessExpiry)
	claims := jwt.MapClaims{
		"sub": "admin",
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(u.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (u *authUsecase) ValidateToken(tokenString string) error {
	// Static token for service-to-service calls and local curl.
	if u.config.AdminToken != "" && tokenString == u.config.AdminToken {
		return nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub != "admin" {
		return ErrInvalidToken
	}
	return nil
}
