package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livechat/models"
	"livechat/repository"
)

func newRoomFixture(t *testing.T) (*RoomService, repository.UserRepository, repository.MembershipRepository) {
	t.Helper()
	users := repository.NewInMemoryUserRepo()
	rooms := repository.NewInMemoryRoomRepo()
	memberships := repository.NewInMemoryMembershipRepo()
	svc := NewRoomService(rooms, users, memberships, 50)
	return svc, users, memberships
}

func TestCreateRoomTrimsAndAddsOwnerMembership(t *testing.T) {
	svc, users, _ := newRoomFixture(t)
	owner, err := users.Create("owner@x.io", "hash")
	require.NoError(t, err)

	room, err := svc.CreateRoom("  Trading Signals  ", owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trading Signals", room.Name)
	assert.Equal(t, owner.ID, room.CreatedBy)

	m, err := svc.MembershipFor(room.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, m.Status)
	assert.Equal(t, models.RoleOwner, m.Role)
}

func TestCreateRoomRejectsEmptyName(t *testing.T) {
	svc, _, _ := newRoomFixture(t)

	_, err := svc.CreateRoom("   ", "u1")
	assert.Error(t, err)

	_, err = svc.CreateRoom("", "u1")
	assert.Error(t, err)
}

func TestListRoomsNewestFirst(t *testing.T) {
	svc, users, _ := newRoomFixture(t)
	owner, _ := users.Create("owner@x.io", "hash")

	first, err := svc.CreateRoom("first", owner.ID)
	require.NoError(t, err)
	second, err := svc.CreateRoom("second", owner.ID)
	require.NoError(t, err)

	rooms, err := svc.ListRooms()
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	// Creation timestamps may collide at clock resolution; both orders put
	// the newest first when they differ.
	if rooms[0].CreatedAt.After(rooms[1].CreatedAt) {
		assert.Equal(t, second.ID, rooms[0].ID)
		assert.Equal(t, first.ID, rooms[1].ID)
	}
}

func TestRequestAccessOncePerRoom(t *testing.T) {
	svc, users, _ := newRoomFixture(t)
	owner, _ := users.Create("owner@x.io", "hash")
	guest, _ := users.Create("guest@x.io", "hash")
	room, err := svc.CreateRoom("General", owner.ID)
	require.NoError(t, err)

	m, err := svc.RequestAccess(room.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, m.Status)
	assert.Equal(t, models.RoleMember, m.Role)

	_, err = svc.RequestAccess(room.ID, guest.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestResolveRequestOwnerOnly(t *testing.T) {
	svc, users, _ := newRoomFixture(t)
	owner, _ := users.Create("owner@x.io", "hash")
	guest, _ := users.Create("guest@x.io", "hash")
	other, _ := users.Create("other@x.io", "hash")
	room, _ := svc.CreateRoom("General", owner.ID)

	m, err := svc.RequestAccess(room.ID, guest.ID)
	require.NoError(t, err)

	_, err = svc.ResolveRequest(m.ID, other.ID, true)
	assert.ErrorIs(t, err, ErrNotOwner)

	approved, err := svc.ResolveRequest(m.ID, owner.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	// Resolved requests never go back to pending, nor flip again.
	_, err = svc.ResolveRequest(m.ID, owner.ID, false)
	assert.ErrorIs(t, err, ErrRequestResolved)
}

func TestResolveRequestRejection(t *testing.T) {
	svc, users, _ := newRoomFixture(t)
	owner, _ := users.Create("owner@x.io", "hash")
	guest, _ := users.Create("guest@x.io", "hash")
	room, _ := svc.CreateRoom("General", owner.ID)

	m, _ := svc.RequestAccess(room.ID, guest.ID)
	rejected, err := svc.ResolveRequest(m.ID, owner.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
}

func TestPendingRequestsOwnerGateAndEmailJoin(t *testing.T) {
	svc, users, _ := newRoomFixture(t)
	owner, _ := users.Create("owner@x.io", "hash")
	guest, _ := users.Create("guest@x.io", "hash")
	room, _ := svc.CreateRoom("General", owner.ID)

	_, err := svc.RequestAccess(room.ID, guest.ID)
	require.NoError(t, err)

	_, err = svc.PendingRequests(room.ID, guest.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	requests, err := svc.PendingRequests(room.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, guest.ID, requests[0].UserID)
	assert.Equal(t, "guest@x.io", requests[0].Email)
	assert.Equal(t, models.StatusPending, requests[0].Status)
}
