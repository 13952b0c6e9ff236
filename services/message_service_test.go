package services

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livechat/config"
	"livechat/models"
	"livechat/repository"
)

type recordingFeed struct {
	mu     sync.Mutex
	events []models.Message
}

func (f *recordingFeed) BroadcastInsert(msg models.Message) {
	f.mu.Lock()
	f.events = append(f.events, msg)
	f.mu.Unlock()
}

func (f *recordingFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type msgFixture struct {
	msgSvc  *MessageService
	roomSvc *RoomService
	feed    *recordingFeed
	owner   *models.User
	guest   *models.User
	room    *models.Room
}

func newMsgFixture(t *testing.T) *msgFixture {
	t.Helper()
	cfg := config.Config{MaxMessageLength: 1000}
	users := repository.NewInMemoryUserRepo()
	rooms := repository.NewInMemoryRoomRepo()
	memberships := repository.NewInMemoryMembershipRepo()
	messages := repository.NewInMemoryMessageRepo()
	feed := &recordingFeed{}

	roomSvc := NewRoomService(rooms, users, memberships, 50)
	msgSvc := NewMessageService(messages, rooms, users, memberships, feed, &cfg)

	owner, err := users.Create("owner@x.io", "hash")
	require.NoError(t, err)
	guest, err := users.Create("guest@x.io", "hash")
	require.NoError(t, err)
	room, err := roomSvc.CreateRoom("General", owner.ID)
	require.NoError(t, err)

	return &msgFixture{msgSvc: msgSvc, roomSvc: roomSvc, feed: feed, owner: owner, guest: guest, room: room}
}

func TestSendTrimsAndBroadcasts(t *testing.T) {
	f := newMsgFixture(t)

	msg, err := f.msgSvc.Send(f.room.ID, f.owner.ID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "owner@x.io", msg.AuthorEmail)
	assert.NotEmpty(t, msg.ID)

	require.Equal(t, 1, f.feed.count())
	assert.Equal(t, msg.ID, f.feed.events[0].ID)
}

func TestSendRejectsEmptyAndOversized(t *testing.T) {
	f := newMsgFixture(t)

	_, err := f.msgSvc.Send(f.room.ID, f.owner.ID, "   ")
	assert.Error(t, err)

	_, err = f.msgSvc.Send(f.room.ID, f.owner.ID, strings.Repeat("x", 1001))
	assert.Error(t, err)

	assert.Equal(t, 0, f.feed.count())
}

func TestSendRequiresApprovedMembership(t *testing.T) {
	f := newMsgFixture(t)

	// No membership at all.
	_, err := f.msgSvc.Send(f.room.ID, f.guest.ID, "hi")
	assert.ErrorIs(t, err, ErrNotApproved)

	// Pending membership.
	m, err := f.roomSvc.RequestAccess(f.room.ID, f.guest.ID)
	require.NoError(t, err)
	_, err = f.msgSvc.Send(f.room.ID, f.guest.ID, "hi")
	assert.ErrorIs(t, err, ErrNotApproved)

	// Approved membership.
	_, err = f.roomSvc.ResolveRequest(m.ID, f.owner.ID, true)
	require.NoError(t, err)
	msg, err := f.msgSvc.Send(f.room.ID, f.guest.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "guest@x.io", msg.AuthorEmail)
}

func TestListOldestFirstWithEmails(t *testing.T) {
	f := newMsgFixture(t)

	first, err := f.msgSvc.Send(f.room.ID, f.owner.ID, "first")
	require.NoError(t, err)
	second, err := f.msgSvc.Send(f.room.ID, f.owner.ID, "second")
	require.NoError(t, err)

	msgs, err := f.msgSvc.List(f.room.ID, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)
	assert.Equal(t, "owner@x.io", msgs[0].AuthorEmail)
}

func TestListGatedOnApproval(t *testing.T) {
	f := newMsgFixture(t)
	_, err := f.msgSvc.Send(f.room.ID, f.owner.ID, "secret")
	require.NoError(t, err)

	_, err = f.msgSvc.List(f.room.ID, f.guest.ID)
	assert.ErrorIs(t, err, ErrNotApproved)
}

func TestGetByIDJoinsEmailAndGates(t *testing.T) {
	f := newMsgFixture(t)
	sent, err := f.msgSvc.Send(f.room.ID, f.owner.ID, "hello")
	require.NoError(t, err)

	got, err := f.msgSvc.GetByID(sent.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "owner@x.io", got.AuthorEmail)

	_, err = f.msgSvc.GetByID(sent.ID, f.guest.ID)
	assert.ErrorIs(t, err, ErrNotApproved)
}
