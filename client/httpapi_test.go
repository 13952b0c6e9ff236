package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livechat/config"
	"livechat/handlers"
	"livechat/repository"
	"livechat/services"
	"livechat/ws"
)

// Full-stack fixture: in-memory repos, the real HTTP API and the real
// websocket feed, driven through APIClient-backed controllers.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		JWTSecret:        "test-secret",
		JWTExpiry:        1,
		MaxMessageLength: 1000,
		MaxRoomNameLen:   50,
	}

	userRepo := repository.NewInMemoryUserRepo()
	roomRepo := repository.NewInMemoryRoomRepo()
	membershipRepo := repository.NewInMemoryMembershipRepo()
	messageRepo := repository.NewInMemoryMessageRepo()

	hub := ws.NewHub()
	go hub.Run()

	authSvc := services.NewAuthService(userRepo, &cfg)
	roomSvc := services.NewRoomService(roomRepo, userRepo, membershipRepo, cfg.MaxRoomNameLen)
	msgSvc := services.NewMessageService(messageRepo, roomRepo, userRepo, membershipRepo, hub, &cfg)

	authH := handlers.NewAuthHandler(authSvc)
	roomH := handlers.NewRoomHandler(hub, roomSvc, msgSvc, authSvc)
	msgH := handlers.NewMessageHandler(msgSvc, authSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/register", authH.Register)
	mux.HandleFunc("/api/login", authH.Login)
	mux.HandleFunc("/api/rooms", roomH.WithAuth(roomH.Rooms))
	mux.HandleFunc("/api/rooms/create", roomH.WithAuth(roomH.Create))
	mux.HandleFunc("/api/rooms/request", roomH.WithAuth(roomH.RequestAccess))
	mux.HandleFunc("/api/memberships", roomH.WithAuth(roomH.Memberships))
	mux.HandleFunc("/api/members/resolve", roomH.WithAuth(roomH.Resolve))
	mux.HandleFunc("/api/members/pending", roomH.WithAuth(roomH.Pending))
	mux.HandleFunc("/api/messages", msgH.WithAuth(msgH.ListMessages))
	mux.HandleFunc("/api/messages/get", msgH.WithAuth(msgH.GetMessage))
	mux.HandleFunc("/api/messages/send", msgH.WithAuth(msgH.SendMessage))
	mux.HandleFunc("/ws", roomH.WS)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func startUser(t *testing.T, srv *httptest.Server, email string) *Controller {
	t.Helper()
	ctx := context.Background()

	api := NewAPIClient(srv.URL)
	ctl := NewController(api, api, api, NewLogNotifier())
	require.NoError(t, ctl.Start(ctx))
	t.Cleanup(ctl.Close)

	_, err := ctl.SignUp(ctx, email, "secret1")
	require.NoError(t, err)
	require.NoError(t, ctl.SignIn(ctx, email, "secret1"))
	require.NotNil(t, ctl.Session())
	return ctl
}

func TestEndToEndMembershipAndLiveMessages(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	owner := startUser(t, srv, "owner@x.io")
	guest := startUser(t, srv, "guest@x.io")

	// Owner creates a room; the server inserts the implicit owner
	// membership, the controller re-reads it.
	require.NoError(t, owner.CreateRoom(ctx, "  Lobby  "))
	room := owner.ActiveRoom()
	require.NotNil(t, room)
	assert.Equal(t, "Lobby", room.Name)

	m, ok := owner.MembershipFor(room.ID)
	require.True(t, ok)
	assert.Equal(t, "approved", string(m.Status))
	assert.True(t, owner.Subscribed(), "owner is live in the room they created")

	// Guest sees the room but cannot read it yet.
	rooms := guest.Rooms()
	require.Empty(t, rooms, "room list was loaded before the room existed")
	require.NoError(t, guest.SignOut(ctx))
	require.NoError(t, guest.SignIn(ctx, "guest@x.io", "secret1"))
	rooms = guest.Rooms()
	require.Len(t, rooms, 1)

	guest.SelectRoom(ctx, room.ID)
	assert.Empty(t, guest.Messages())
	assert.False(t, guest.Subscribed())

	// Guest requests access; owner re-enters the room and approves.
	require.NoError(t, guest.RequestAccess(ctx, room.ID))
	gm, ok := guest.MembershipFor(room.ID)
	require.True(t, ok)
	assert.Equal(t, "pending", string(gm.Status))

	owner.SelectRoom(ctx, room.ID)
	pending := owner.PendingRequests()
	require.Len(t, pending, 1)
	assert.Equal(t, "guest@x.io", pending[0].Email)

	require.NoError(t, owner.ResolveRequest(ctx, pending[0].ID, true))
	assert.Empty(t, owner.PendingRequests())

	// Guest reloads the session scope and is now live.
	require.NoError(t, guest.SignOut(ctx))
	require.NoError(t, guest.SignIn(ctx, "guest@x.io", "secret1"))
	guest.SelectRoom(ctx, room.ID)
	require.True(t, guest.Subscribed())

	// A message sent by the owner reaches the guest over the feed.
	require.NoError(t, owner.SendMessage(ctx, "welcome in"))
	assert.Eventually(t, func() bool {
		msgs := guest.Messages()
		return len(msgs) == 1 && msgs[0].Content == "welcome in"
	}, 2*time.Second, 20*time.Millisecond)

	msgs := guest.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "owner@x.io", msgs[0].AuthorEmail)

	// The sender's own list got the echo exactly once.
	ownMsgs := owner.Messages()
	require.Len(t, ownMsgs, 1)
	assert.Equal(t, "welcome in", ownMsgs[0].Content)
}

func TestEndToEndRejectedMemberStaysLocked(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	owner := startUser(t, srv, "owner@x.io")
	guest := startUser(t, srv, "guest@x.io")

	require.NoError(t, owner.CreateRoom(ctx, "Private"))
	room := owner.ActiveRoom()
	require.NotNil(t, room)

	require.NoError(t, guest.RequestAccess(ctx, room.ID))

	owner.SelectRoom(ctx, room.ID)
	pending := owner.PendingRequests()
	require.Len(t, pending, 1)
	require.NoError(t, owner.ResolveRequest(ctx, pending[0].ID, false))

	require.NoError(t, guest.SignOut(ctx))
	require.NoError(t, guest.SignIn(ctx, "guest@x.io", "secret1"))
	guest.SelectRoom(ctx, room.ID)

	gm, ok := guest.MembershipFor(room.ID)
	require.True(t, ok)
	assert.Equal(t, "rejected", string(gm.Status))
	assert.Empty(t, guest.Messages())
	assert.False(t, guest.Subscribed())
}

func TestEndToEndSignInErrorIsVerbatim(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	api := NewAPIClient(srv.URL)
	err := api.SignIn(ctx, "nobody@x.io", "nope")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}
