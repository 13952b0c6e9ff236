package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"livechat/models"
)

// Postgres-backed repositories. Schemas are migrated in config.ConnectDB.

type GormUserRepo struct {
	db *gorm.DB
}

func NewGormUserRepo(db *gorm.DB) *GormUserRepo { return &GormUserRepo{db: db} }

func (r *GormUserRepo) Create(email, passwordHash string) (*models.User, error) {
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := r.db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

func (r *GormUserRepo) FindByEmail(email string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &u, nil
}

func (r *GormUserRepo) FindByID(id string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &u, nil
}

type GormRoomRepo struct {
	db *gorm.DB
}

func NewGormRoomRepo(db *gorm.DB) *GormRoomRepo { return &GormRoomRepo{db: db} }

func (r *GormRoomRepo) Create(name, createdBy string) (*models.Room, error) {
	room := &models.Room{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: createdBy,
	}
	if err := r.db.Create(room).Error; err != nil {
		return nil, err
	}
	return room, nil
}

func (r *GormRoomRepo) List() ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.Order("created_at DESC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *GormRoomRepo) FindByID(id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.Where("id = ?", id).First(&room).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &room, nil
}

type GormMembershipRepo struct {
	db *gorm.DB
}

func NewGormMembershipRepo(db *gorm.DB) *GormMembershipRepo {
	return &GormMembershipRepo{db: db}
}

func (r *GormMembershipRepo) Create(roomID, userID string, status models.MembershipStatus, role string) (*models.Membership, error) {
	m := &models.Membership{
		ID:     uuid.NewString(),
		RoomID: roomID,
		UserID: userID,
		Status: status,
		Role:   role,
	}
	if err := r.db.Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return m, nil
}

func (r *GormMembershipRepo) ListByUser(userID string) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *GormMembershipRepo) Find(roomID, userID string) (*models.Membership, error) {
	var m models.Membership
	err := r.db.Where("room_id = ? AND user_id = ?", roomID, userID).First(&m).Error
	if err != nil {
		return nil, mapGormErr(err)
	}
	return &m, nil
}

func (r *GormMembershipRepo) FindByID(id string) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &m, nil
}

func (r *GormMembershipRepo) UpdateStatus(id string, status models.MembershipStatus) (*models.Membership, error) {
	res := r.db.Model(&models.Membership{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(id)
}

func (r *GormMembershipRepo) ListPending(roomID string) ([]models.Membership, error) {
	var pending []models.Membership
	err := r.db.Where("room_id = ? AND status = ?", roomID, models.StatusPending).
		Find(&pending).Error
	if err != nil {
		return nil, err
	}
	return pending, nil
}

type GormMessageRepo struct {
	db *gorm.DB
}

func NewGormMessageRepo(db *gorm.DB) *GormMessageRepo { return &GormMessageRepo{db: db} }

func (r *GormMessageRepo) Save(msg *models.Message) (*models.Message, error) {
	if msg == nil {
		return nil, ErrNotFound
	}
	msg.ID = uuid.NewString()
	if err := r.db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *GormMessageRepo) ListByRoom(roomID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.Where("room_id = ?", roomID).Order("created_at ASC").Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *GormMessageRepo) FindByID(id string) (*models.Message, error) {
	var m models.Message
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return &m, nil
}

func mapGormErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
