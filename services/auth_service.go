package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"livechat/config"
	"livechat/models"
	"livechat/repository"
	"livechat/utils"
)

type AuthService struct {
	users  repository.UserRepository
	config *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{users: userRepo, config: cfg}
}

func (s *AuthService) Register(email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, errors.New("invalid email address")
	}
	if len(password) < 6 || len(password) > 100 {
		return nil, errors.New("password must be between 6 and 100 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(email, string(hashed))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errors.New("email already registered")
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, errors.New("email and password are required")
	}

	u, err := s.users.FindByEmail(email)
	if err != nil {
		return "", nil, errors.New("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, errors.New("invalid credentials")
	}
	token, err := s.CreateToken(u.ID, u.Email)
	return token, u, err
}

func (s *AuthService) CreateToken(userID, email string) (string, error) {
	expiry := time.Duration(s.config.JWTExpiry) * time.Hour
	return utils.GenerateJWT(s.config.JWTSecret, userID, email, expiry)
}

func (s *AuthService) ParseToken(token string) (string, string, error) {
	return utils.ParseJWT(s.config.JWTSecret, token)
}
