package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"livechat/models"
)

type RoomRepository interface {
	Create(name, createdBy string) (*models.Room, error)
	// List returns every room, newest first.
	List() ([]models.Room, error)
	FindByID(id string) (*models.Room, error)
}

type InMemoryRoomRepo struct {
	mu   sync.RWMutex
	data map[string]*models.Room
}

func NewInMemoryRoomRepo() *InMemoryRoomRepo {
	return &InMemoryRoomRepo{data: make(map[string]*models.Room)}
}

func (r *InMemoryRoomRepo) Create(name, createdBy string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := &models.Room{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	r.data[room.ID] = room
	return room, nil
}

func (r *InMemoryRoomRepo) List() ([]models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]models.Room, 0, len(r.data))
	for _, v := range r.data {
		rooms = append(rooms, *v)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (r *InMemoryRoomRepo) FindByID(id string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return room, nil
}
