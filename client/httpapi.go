package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"livechat/models"
)

// APIClient talks to the livechat server's JSON API and websocket feed. It
// implements AuthProvider, Store and ChangeFeed, so one constructed client
// serves the whole controller — no ambient singletons.
type APIClient struct {
	baseURL string
	http    *http.Client

	mu       sync.Mutex
	session  *Session
	watchers map[int]func(*Session)
	nextID   int
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		watchers: make(map[int]func(*Session)),
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewBuffer(b)
	} else {
		payload = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = envelope.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return errors.New(msg)
	}

	if out != nil {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}

func (c *APIClient) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// --- AuthProvider ---

func (c *APIClient) Session(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, nil
	}
	copied := *c.session
	return &copied, nil
}

func (c *APIClient) OnSessionChange(fn func(*Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.watchers, id)
	}
}

func (c *APIClient) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	watchers := make([]func(*Session), 0, len(c.watchers))
	for _, fn := range c.watchers {
		watchers = append(watchers, fn)
	}
	c.mu.Unlock()

	for _, fn := range watchers {
		var copied *Session
		if s != nil {
			v := *s
			copied = &v
		}
		fn(copied)
	}
}

func (c *APIClient) SignUp(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/register", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
}

func (c *APIClient) SignIn(ctx context.Context, email, password string) error {
	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return err
	}

	c.setSession(&Session{UserID: out.User.ID, Email: out.User.Email, Token: out.Token})
	return nil
}

func (c *APIClient) SignOut(ctx context.Context) error {
	// Tokens are stateless; signing out drops the local session and lets
	// the watch propagate the loss.
	c.setSession(nil)
	return nil
}

// --- Store ---

func (c *APIClient) Rooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := c.do(ctx, http.MethodGet, "/api/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *APIClient) CreateRoom(ctx context.Context, name string) (*models.Room, error) {
	var room models.Room
	err := c.do(ctx, http.MethodPost, "/api/rooms/create", map[string]string{"name": name}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *APIClient) Memberships(ctx context.Context) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := c.do(ctx, http.MethodGet, "/api/memberships", nil, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

func (c *APIClient) RequestAccess(ctx context.Context, roomID string) (*models.Membership, error) {
	var m models.Membership
	err := c.do(ctx, http.MethodPost, "/api/rooms/request", map[string]string{"room_id": roomID}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *APIClient) PendingRequests(ctx context.Context, roomID string) ([]models.PendingRequest, error) {
	var requests []models.PendingRequest
	path := "/api/members/pending?roomId=" + url.QueryEscape(roomID)
	if err := c.do(ctx, http.MethodGet, path, nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *APIClient) ResolveRequest(ctx context.Context, membershipID string, approve bool) (*models.Membership, error) {
	var m models.Membership
	err := c.do(ctx, http.MethodPost, "/api/members/resolve", map[string]any{
		"membership_id": membershipID,
		"approve":       approve,
	}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *APIClient) Messages(ctx context.Context, roomID string) ([]models.Message, error) {
	var msgs []models.Message
	path := "/api/messages?roomId=" + url.QueryEscape(roomID)
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *APIClient) MessageByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	path := "/api/messages/get?id=" + url.QueryEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *APIClient) SendMessage(ctx context.Context, roomID, content string) (*models.Message, error) {
	var msg models.Message
	err := c.do(ctx, http.MethodPost, "/api/messages/send", map[string]string{
		"room_id": roomID,
		"content": content,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
