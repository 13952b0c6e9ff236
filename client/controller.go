package client

import (
	"context"
	"strings"
	"sync"

	"livechat/models"
)

// Controller is the chat session state machine. Every external event — a
// session change, a room selection, a feed insert, a completed write — runs
// as one handler under the state mutex, updates the state and re-evaluates
// the dependent gates (pending-request loader, message loader, live
// subscription). Feed callbacks and accessors may run on any goroutine; the
// mutex serializes them into the same logical event order.
type Controller struct {
	auth     AuthProvider
	store    Store
	feed     ChangeFeed
	notifier Notifier

	// OnMessagesChanged, when set before Start, fires after every bulk load
	// and append. UI scroll-to-bottom hook; not a correctness concern.
	OnMessagesChanged func()

	mu               sync.Mutex
	session          *Session
	rooms            []models.Room
	memberships      []models.Membership
	membershipByRoom map[string]models.Membership
	activeRoom       *models.Room
	pending          []models.PendingRequest
	messages         []models.Message
	statusMessage    string
	authNotice       string
	permission       Permission

	sub     Subscription
	subGen  uint64
	unwatch func()
	closed  bool
}

func NewController(auth AuthProvider, store Store, feed ChangeFeed, notifier Notifier) *Controller {
	return &Controller{
		auth:             auth,
		store:            store,
		feed:             feed,
		notifier:         notifier,
		membershipByRoom: make(map[string]models.Membership),
		permission:       notifier.Permission(),
	}
}

// Start reads the current session and registers the session watch. It must
// be called once; Close releases the watch and the feed subscription.
func (c *Controller) Start(ctx context.Context) error {
	session, err := c.auth.Session(ctx)
	if err != nil {
		return err
	}

	c.unwatch = c.auth.OnSessionChange(func(next *Session) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		c.applySessionLocked(context.Background(), next)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applySessionLocked(ctx, session)
	return nil
}

func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.teardownSubLocked()
	if c.unwatch != nil {
		c.unwatch()
	}
}

// applySessionLocked is the session-change handler. Losing the session
// resets every dependent collection in the same transition; gaining one
// triggers the room and membership loaders.
func (c *Controller) applySessionLocked(ctx context.Context, session *Session) {
	c.session = session
	// The sign-up notice belongs to the pre-auth screen; any session
	// transition makes it stale.
	c.authNotice = ""

	if session == nil {
		c.rooms = nil
		c.memberships = nil
		c.membershipByRoom = make(map[string]models.Membership)
		c.activeRoom = nil
		c.pending = nil
		c.messages = nil
		c.teardownSubLocked()
		return
	}

	// Two independent best-effort loads; a room-list failure must not block
	// the membership load.
	rooms, err := c.store.Rooms(ctx)
	if err != nil {
		c.statusMessage = "Could not load the rooms."
		c.rooms = nil
	} else {
		c.rooms = rooms
	}

	c.reloadMembershipsLocked(ctx)
	c.refreshRoomScopeLocked(ctx)
}

func (c *Controller) reloadMembershipsLocked(ctx context.Context) {
	memberships, err := c.store.Memberships(ctx)
	if err != nil {
		c.statusMessage = "Could not load the memberships."
		memberships = nil
	}
	c.memberships = memberships
	c.membershipByRoom = make(map[string]models.Membership, len(memberships))
	for _, m := range memberships {
		c.membershipByRoom[m.RoomID] = m
	}
}

// refreshRoomScopeLocked re-evaluates everything scoped to the active room:
// the owner's pending queue and the message list with its subscription.
func (c *Controller) refreshRoomScopeLocked(ctx context.Context) {
	c.refreshPendingLocked(ctx)
	c.resubscribeLocked(ctx)
}

// The pending queue exists only for the active room's owner; everyone else
// sees it empty regardless of server state.
func (c *Controller) refreshPendingLocked(ctx context.Context) {
	room, session := c.activeRoom, c.session
	if room == nil || session == nil || room.CreatedBy != session.UserID {
		c.pending = nil
		return
	}

	pending, err := c.store.PendingRequests(ctx, room.ID)
	if err != nil {
		pending = nil
	}
	c.pending = pending
}

// resubscribeLocked tears down the previous subscription unconditionally,
// then loads history and re-subscribes only while the active membership is
// approved.
func (c *Controller) resubscribeLocked(ctx context.Context) {
	c.teardownSubLocked()

	room, session := c.activeRoom, c.session
	if room == nil || session == nil {
		c.messages = nil
		return
	}
	m, ok := c.membershipByRoom[room.ID]
	if !ok || m.Status != models.StatusApproved {
		c.messages = nil
		return
	}

	msgs, err := c.store.Messages(ctx, room.ID)
	if err != nil {
		msgs = nil
	}
	c.messages = msgs
	c.messagesChangedLocked()

	gen := c.subGen
	roomID, roomName := room.ID, room.Name
	sub, err := c.feed.SubscribeInserts(roomID, func(row models.Message) {
		c.handleInsert(gen, roomID, roomName, row)
	})
	if err != nil {
		c.statusMessage = "Could not subscribe to the room feed."
		return
	}
	c.sub = sub
}

// teardownSubLocked releases the live subscription and bumps the generation
// so an in-flight event for the old scope is discarded instead of delivered
// into torn-down state.
func (c *Controller) teardownSubLocked() {
	c.subGen++
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
}

// handleInsert is the change-feed event handler: re-read the row by id for
// the joined author email, merge by id, and raise the notification for
// foreign messages when permission is granted.
func (c *Controller) handleInsert(gen uint64, roomID, roomName string, row models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.subGen {
		return
	}
	if c.session == nil || c.activeRoom == nil || c.activeRoom.ID != roomID {
		return
	}
	if row.ID == "" {
		return
	}

	full, err := c.store.MessageByID(context.Background(), row.ID)
	if err != nil || full == nil {
		return
	}

	if !c.appendMessageLocked(*full) {
		return
	}

	if full.UserID != c.session.UserID && c.permission == PermissionGranted {
		c.notifier.Notify("New message in "+roomName, full.Content)
	}
}

// appendMessageLocked merges a message into the local list, first write
// wins on duplicate id.
func (c *Controller) appendMessageLocked(msg models.Message) bool {
	for _, existing := range c.messages {
		if existing.ID == msg.ID {
			return false
		}
	}
	c.messages = append(c.messages, msg)
	c.messagesChangedLocked()
	return true
}

func (c *Controller) messagesChangedLocked() {
	if c.OnMessagesChanged != nil {
		c.OnMessagesChanged()
	}
}

// SignUp submits credentials; the account stays unauthenticated until the
// verification step completes. The returned notice mirrors the provider's
// "check your email" flow.
func (c *Controller) SignUp(ctx context.Context, email, password string) (string, error) {
	if err := c.auth.SignUp(ctx, email, password); err != nil {
		return "", err
	}
	notice := "Check your email to confirm the account."
	c.mu.Lock()
	c.authNotice = notice
	c.mu.Unlock()
	return notice, nil
}

// SignIn surfaces the provider error verbatim. The session itself arrives
// through the session watch.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	return c.auth.SignIn(ctx, email, password)
}

// SignOut requests external invalidation; local state clears when the watch
// reports the session loss.
func (c *Controller) SignOut(ctx context.Context) error {
	return c.auth.SignOut(ctx)
}

// SelectRoom is a pure local transition; the dependent loaders react to it.
func (c *Controller) SelectRoom(ctx context.Context, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activeRoom = nil
	for i := range c.rooms {
		if c.rooms[i].ID == roomID {
			room := c.rooms[i]
			c.activeRoom = &room
			break
		}
	}
	c.refreshRoomScopeLocked(ctx)
}

// CreateRoom trims the name, inserts with echo, prepends the room, makes it
// active and re-reads the membership list for the implicit owner row.
// Empty input issues no request.
func (c *Controller) CreateRoom(ctx context.Context, name string) error {
	trimmed := strings.TrimSpace(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if trimmed == "" || c.session == nil {
		return nil
	}

	room, err := c.store.CreateRoom(ctx, trimmed)
	if err != nil {
		c.statusMessage = "Could not create the room."
		return err
	}

	c.rooms = append([]models.Room{*room}, c.rooms...)
	active := *room
	c.activeRoom = &active

	c.reloadMembershipsLocked(ctx)
	c.refreshRoomScopeLocked(ctx)
	return nil
}

// RequestAccess inserts a pending membership, then re-reads the membership
// list so the local map stays authoritative.
func (c *Controller) RequestAccess(ctx context.Context, roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}

	if _, err := c.store.RequestAccess(ctx, roomID); err != nil {
		c.statusMessage = "Could not send the request."
		return err
	}

	c.reloadMembershipsLocked(ctx)
	c.refreshRoomScopeLocked(ctx)
	return nil
}

// ResolveRequest approves or rejects a pending membership, then re-reads
// the active room's pending queue.
func (c *Controller) ResolveRequest(ctx context.Context, membershipID string, approve bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}

	if _, err := c.store.ResolveRequest(ctx, membershipID, approve); err != nil {
		c.statusMessage = "Could not update the request."
		return err
	}

	c.refreshPendingLocked(ctx)
	return nil
}

// SendMessage inserts with echo and merges the returned row. On failure the
// caller keeps the input; on success it may clear it.
func (c *Controller) SendMessage(ctx context.Context, content string) error {
	trimmed := strings.TrimSpace(content)

	c.mu.Lock()
	defer c.mu.Unlock()
	if trimmed == "" || c.session == nil || c.activeRoom == nil {
		return nil
	}
	m, ok := c.membershipByRoom[c.activeRoom.ID]
	if !ok || m.Status != models.StatusApproved {
		return nil
	}

	msg, err := c.store.SendMessage(ctx, c.activeRoom.ID, trimmed)
	if err != nil {
		c.statusMessage = "Could not send the message."
		return err
	}

	c.appendMessageLocked(*msg)
	return nil
}

// RequestNotificationPermission runs the user-triggered permission request
// and records the result.
func (c *Controller) RequestNotificationPermission() Permission {
	perm := c.notifier.RequestPermission()
	c.mu.Lock()
	c.permission = perm
	c.mu.Unlock()
	return perm
}

func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	copied := *c.session
	return &copied
}

func (c *Controller) Rooms() []models.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Room(nil), c.rooms...)
}

func (c *Controller) Memberships() []models.Membership {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Membership(nil), c.memberships...)
}

// MembershipFor answers "what is my status in room X" from the local map.
func (c *Controller) MembershipFor(roomID string) (models.Membership, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.membershipByRoom[roomID]
	return m, ok
}

func (c *Controller) ActiveRoom() *models.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeRoom == nil {
		return nil
	}
	copied := *c.activeRoom
	return &copied
}

func (c *Controller) PendingRequests() []models.PendingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.PendingRequest(nil), c.pending...)
}

func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.messages...)
}

func (c *Controller) StatusMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusMessage
}

func (c *Controller) ClearStatus() {
	c.mu.Lock()
	c.statusMessage = ""
	c.mu.Unlock()
}

func (c *Controller) AuthNotice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authNotice
}

func (c *Controller) NotificationPermission() Permission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permission
}

// Subscribed reports whether a live feed subscription currently exists.
func (c *Controller) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub != nil
}
