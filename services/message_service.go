package services

import (
	"errors"
	"fmt"
	"strings"

	"livechat/config"
	"livechat/models"
	"livechat/repository"
)

var ErrNotApproved = errors.New("membership not approved for this room")

// InsertBroadcaster fans a stored message row out to the room's change-feed
// subscribers. Interface here to avoid an import cycle with the ws package.
type InsertBroadcaster interface {
	BroadcastInsert(msg models.Message)
}

type MessageService struct {
	msgs        repository.MessageRepository
	rooms       repository.RoomRepository
	users       repository.UserRepository
	memberships repository.MembershipRepository
	feed        InsertBroadcaster
	config      *config.Config
}

func NewMessageService(mr repository.MessageRepository, rr repository.RoomRepository, ur repository.UserRepository, memRepo repository.MembershipRepository, feed InsertBroadcaster, cfg *config.Config) *MessageService {
	return &MessageService{msgs: mr, rooms: rr, users: ur, memberships: memRepo, feed: feed, config: cfg}
}

// CanAccess reports whether the user's membership for the room is approved.
// Message reads, writes and feed subscriptions all sit behind this gate.
func (s *MessageService) CanAccess(roomID, userID string) (bool, error) {
	m, err := s.memberships.Find(roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return m.Status == models.StatusApproved, nil
}

func (s *MessageService) Send(roomID, senderID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("empty content")
	}
	if len(content) > s.config.MaxMessageLength {
		return nil, fmt.Errorf("message too long (max %d characters)", s.config.MaxMessageLength)
	}

	if _, err := s.rooms.FindByID(roomID); err != nil {
		return nil, errors.New("room not found")
	}

	ok, err := s.CanAccess(roomID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotApproved
	}

	user, err := s.users.FindByID(senderID)
	if err != nil {
		return nil, errors.New("sender not found")
	}

	msg := &models.Message{
		RoomID:  roomID,
		UserID:  senderID,
		Content: content,
	}

	saved, err := s.msgs.Save(msg)
	if err != nil {
		return nil, err
	}
	saved.AuthorEmail = user.Email

	s.feed.BroadcastInsert(*saved)
	return saved, nil
}

// List returns the room's full history, oldest first, author email joined.
func (s *MessageService) List(roomID, userID string) ([]models.Message, error) {
	if _, err := s.rooms.FindByID(roomID); err != nil {
		return nil, errors.New("room not found")
	}

	ok, err := s.CanAccess(roomID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotApproved
	}

	msgs, err := s.msgs.ListByRoom(roomID)
	if err != nil {
		return nil, err
	}

	for i := range msgs {
		msgs[i].AuthorEmail = s.authorEmail(msgs[i].UserID)
	}
	return msgs, nil
}

// GetByID is the echo read used when a feed event arrives with only the raw
// row: it re-reads the message with the author email joined in.
func (s *MessageService) GetByID(id, userID string) (*models.Message, error) {
	m, err := s.msgs.FindByID(id)
	if err != nil {
		return nil, errors.New("message not found")
	}

	ok, err := s.CanAccess(m.RoomID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotApproved
	}

	copied := *m
	copied.AuthorEmail = s.authorEmail(m.UserID)
	return &copied, nil
}

func (s *MessageService) authorEmail(userID string) string {
	u, err := s.users.FindByID(userID)
	if err != nil {
		return ""
	}
	return u.Email
}
