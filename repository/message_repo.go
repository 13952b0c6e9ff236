package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"livechat/models"
)

type MessageRepository interface {
	Save(msg *models.Message) (*models.Message, error)
	// ListByRoom returns a room's messages ordered by creation time, oldest
	// first.
	ListByRoom(roomID string) ([]models.Message, error)
	FindByID(id string) (*models.Message, error)
}

type InMemoryMessageRepo struct {
	mu   sync.RWMutex
	data map[string]*models.Message
	byR  map[string][]string // room -> message IDs in insert order
}

func NewInMemoryMessageRepo() *InMemoryMessageRepo {
	return &InMemoryMessageRepo{
		data: make(map[string]*models.Message),
		byR:  make(map[string][]string),
	}
}

func (r *InMemoryMessageRepo) Save(msg *models.Message) (*models.Message, error) {
	if msg == nil {
		return nil, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	msg.ID = uuid.NewString()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.data[msg.ID] = msg
	r.byR[msg.RoomID] = append(r.byR[msg.RoomID], msg.ID)
	return msg, nil
}

func (r *InMemoryMessageRepo) ListByRoom(roomID string) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byR[roomID]
	msgs := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, *r.data[id])
	}
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (r *InMemoryMessageRepo) FindByID(id string) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}
