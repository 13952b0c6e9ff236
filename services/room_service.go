package services

import (
	"errors"
	"fmt"
	"strings"

	"livechat/models"
	"livechat/repository"
)

var (
	ErrNotOwner        = errors.New("only the room owner may do this")
	ErrAlreadyMember   = errors.New("membership request already exists")
	ErrRequestResolved = errors.New("request already resolved")
)

type RoomService struct {
	rooms       repository.RoomRepository
	users       repository.UserRepository
	memberships repository.MembershipRepository
	maxNameLen  int
}

func NewRoomService(rr repository.RoomRepository, ur repository.UserRepository, mr repository.MembershipRepository, maxNameLen int) *RoomService {
	return &RoomService{rooms: rr, users: ur, memberships: mr, maxNameLen: maxNameLen}
}

// CreateRoom stores a room and the creator's owner membership. The owner
// membership row is created server-side so clients only ever re-read it.
func (s *RoomService) CreateRoom(name, createdBy string) (*models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("room name cannot be empty")
	}
	if len(name) > s.maxNameLen {
		return nil, fmt.Errorf("room name too long (maximum %d characters)", s.maxNameLen)
	}

	room, err := s.rooms.Create(name, createdBy)
	if err != nil {
		return nil, err
	}

	_, err = s.memberships.Create(room.ID, createdBy, models.StatusApproved, models.RoleOwner)
	if err != nil {
		return nil, errors.New("failed to add creator to room")
	}

	return room, nil
}

func (s *RoomService) ListRooms() ([]models.Room, error) {
	return s.rooms.List()
}

func (s *RoomService) GetRoomByID(roomID string) (*models.Room, error) {
	return s.rooms.FindByID(roomID)
}

func (s *RoomService) ListMemberships(userID string) ([]models.Membership, error) {
	return s.memberships.ListByUser(userID)
}

// RequestAccess inserts a pending membership for the user. A user has at
// most one membership per room, in whatever status it last reached.
func (s *RoomService) RequestAccess(roomID, userID string) (*models.Membership, error) {
	if _, err := s.rooms.FindByID(roomID); err != nil {
		return nil, errors.New("room not found")
	}

	m, err := s.memberships.Create(roomID, userID, models.StatusPending, models.RoleMember)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return m, nil
}

// ResolveRequest lets the room owner approve or reject a pending membership.
// Resolved requests never transition back to pending.
func (s *RoomService) ResolveRequest(membershipID, actorID string, approve bool) (*models.Membership, error) {
	m, err := s.memberships.FindByID(membershipID)
	if err != nil {
		return nil, errors.New("membership not found")
	}

	room, err := s.rooms.FindByID(m.RoomID)
	if err != nil {
		return nil, errors.New("room not found")
	}
	if room.CreatedBy != actorID {
		return nil, ErrNotOwner
	}
	if m.Status != models.StatusPending {
		return nil, ErrRequestResolved
	}

	status := models.StatusRejected
	if approve {
		status = models.StatusApproved
	}
	return s.memberships.UpdateStatus(membershipID, status)
}

// PendingRequests returns a room's pending memberships with the requester's
// email joined in. Only the room owner may see them.
func (s *RoomService) PendingRequests(roomID, actorID string) ([]models.PendingRequest, error) {
	room, err := s.rooms.FindByID(roomID)
	if err != nil {
		return nil, errors.New("room not found")
	}
	if room.CreatedBy != actorID {
		return nil, ErrNotOwner
	}

	pending, err := s.memberships.ListPending(roomID)
	if err != nil {
		return nil, err
	}

	requests := make([]models.PendingRequest, 0, len(pending))
	for _, m := range pending {
		email := ""
		if u, err := s.users.FindByID(m.UserID); err == nil {
			email = u.Email
		}
		requests = append(requests, models.PendingRequest{
			ID:     m.ID,
			RoomID: m.RoomID,
			UserID: m.UserID,
			Status: m.Status,
			Role:   m.Role,
			Email:  email,
		})
	}
	return requests, nil
}

func (s *RoomService) MembershipFor(roomID, userID string) (*models.Membership, error) {
	return s.memberships.Find(roomID, userID)
}
