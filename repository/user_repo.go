package repository

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"livechat/models"
)

type UserRepository interface {
	Create(email, passwordHash string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByID(id string) (*models.User, error)
}

type InMemoryUserRepo struct {
	mu   sync.RWMutex
	byID map[string]*models.User
	byE  map[string]*models.User
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		byID: make(map[string]*models.User),
		byE:  make(map[string]*models.User),
	}
}

func (r *InMemoryUserRepo) Create(email, passwordHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byE[email]; ok {
		return nil, ErrDuplicate
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.byID[u.ID] = u
	r.byE[u.Email] = u
	return u, nil
}

func (r *InMemoryUserRepo) FindByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byE[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (r *InMemoryUserRepo) FindByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}
