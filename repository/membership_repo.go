package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"livechat/models"
)

type MembershipRepository interface {
	Create(roomID, userID string, status models.MembershipStatus, role string) (*models.Membership, error)
	ListByUser(userID string) ([]models.Membership, error)
	Find(roomID, userID string) (*models.Membership, error)
	FindByID(id string) (*models.Membership, error)
	UpdateStatus(id string, status models.MembershipStatus) (*models.Membership, error)
	// ListPending returns the pending memberships for a room, unordered.
	ListPending(roomID string) ([]models.Membership, error)
}

type InMemoryMembershipRepo struct {
	mu   sync.RWMutex
	data map[string]*models.Membership // by membership id
	byRU map[string]string             // "roomID:userID" -> membership id
}

func NewInMemoryMembershipRepo() *InMemoryMembershipRepo {
	return &InMemoryMembershipRepo{
		data: make(map[string]*models.Membership),
		byRU: make(map[string]string),
	}
}

func (r *InMemoryMembershipRepo) Create(roomID, userID string, status models.MembershipStatus, role string) (*models.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := formatRoomUserKey(roomID, userID)
	if _, exists := r.byRU[key]; exists {
		return nil, ErrDuplicate
	}

	m := &models.Membership{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		UserID:    userID,
		Status:    status,
		Role:      role,
		CreatedAt: time.Now(),
	}
	r.data[m.ID] = m
	r.byRU[key] = m.ID
	return m, nil
}

func (r *InMemoryMembershipRepo) ListByUser(userID string) ([]models.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberships := make([]models.Membership, 0)
	for _, m := range r.data {
		if m.UserID == userID {
			memberships = append(memberships, *m)
		}
	}
	return memberships, nil
}

func (r *InMemoryMembershipRepo) Find(roomID, userID string) (*models.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byRU[formatRoomUserKey(roomID, userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return r.data[id], nil
}

func (r *InMemoryMembershipRepo) FindByID(id string) (*models.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func (r *InMemoryMembershipRepo) UpdateStatus(id string, status models.MembershipStatus) (*models.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.Status = status
	copied := *m
	return &copied, nil
}

func (r *InMemoryMembershipRepo) ListPending(roomID string) ([]models.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pending := make([]models.Membership, 0)
	for _, m := range r.data {
		if m.RoomID == roomID && m.Status == models.StatusPending {
			pending = append(pending, *m)
		}
	}
	return pending, nil
}

func formatRoomUserKey(roomID, userID string) string {
	return fmt.Sprintf("%s:%s", roomID, userID)
}
