// Package client implements the chat session controller: session state,
// room list, per-room membership, the owner's pending-request queue, the
// active room's message list and its live change-feed subscription. The
// backend (auth, relational store, change feed) and the notification
// capability are collaborators behind the interfaces below.
package client

import (
	"context"

	"livechat/models"
)

// Session is the opaque identity handle issued by the auth provider.
type Session struct {
	UserID string
	Email  string
	Token  string
}

// AuthProvider is the external session authority. Implementations push
// session changes (sign-in, sign-out, external invalidation) through the
// watch callback; the controller never persists sessions itself.
type AuthProvider interface {
	Session(ctx context.Context) (*Session, error)
	// OnSessionChange registers a watch for the provider's session
	// transitions. The returned func cancels the watch.
	OnSessionChange(fn func(*Session)) (cancel func())
	SignUp(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

// Store is the relational backend, already scoped to the signed-in user.
// Writes echo the stored row so no second read is needed.
type Store interface {
	// Rooms returns every room, newest first.
	Rooms(ctx context.Context) ([]models.Room, error)
	CreateRoom(ctx context.Context, name string) (*models.Room, error)
	// Memberships returns the current user's memberships, unordered.
	Memberships(ctx context.Context) ([]models.Membership, error)
	RequestAccess(ctx context.Context, roomID string) (*models.Membership, error)
	// PendingRequests returns a room's pending memberships with requester
	// emails. The server enforces the owner gate as well.
	PendingRequests(ctx context.Context, roomID string) ([]models.PendingRequest, error)
	ResolveRequest(ctx context.Context, membershipID string, approve bool) (*models.Membership, error)
	// Messages returns a room's history, oldest first, author email joined.
	Messages(ctx context.Context, roomID string) ([]models.Message, error)
	MessageByID(ctx context.Context, id string) (*models.Message, error)
	SendMessage(ctx context.Context, roomID, content string) (*models.Message, error)
}

// Subscription is a live change-feed registration for one room.
type Subscription interface {
	Unsubscribe()
}

// ChangeFeed delivers row-insert events for a room's messages. The handler
// receives the raw inserted row.
type ChangeFeed interface {
	SubscribeInserts(roomID string, handler func(models.Message)) (Subscription, error)
}

type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

// Notifier is the desktop-notification capability. It gates only the
// new-message side effect; chat works without it.
type Notifier interface {
	Permission() Permission
	RequestPermission() Permission
	Notify(title, body string)
}
