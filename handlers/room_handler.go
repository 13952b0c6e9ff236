package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"livechat/services"
	"livechat/ws"
)

type RoomHandler struct {
	hub     *ws.Hub
	roomSvc *services.RoomService
	msgSvc  *services.MessageService
	authSvc *services.AuthService
}

func NewRoomHandler(h *ws.Hub, rs *services.RoomService, ms *services.MessageService, as *services.AuthService) *RoomHandler {
	return &RoomHandler{hub: h, roomSvc: rs, msgSvc: ms, authSvc: as}
}

// Middleware for authentication
func (h *RoomHandler) WithAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			respondWithError(w, "Unauthorized", "Missing Authorization header (token only)", http.StatusUnauthorized)
			return
		}
		uid, email, err := h.authSvc.ParseToken(token)
		if err != nil {
			respondWithError(w, "Unauthorized", "Invalid token", http.StatusUnauthorized)
			return
		}
		r.Header.Set("X-User-ID", uid)
		r.Header.Set("X-User-Email", email)
		next(w, r)
	}
}

// Rooms lists every room, newest first.
func (h *RoomHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", "Use GET method", http.StatusMethodNotAllowed)
		return
	}

	rooms, err := h.roomSvc.ListRooms()
	if err != nil {
		respondWithError(w, "Internal error", "Failed to list rooms", http.StatusInternalServerError)
		return
	}

	respondWithSuccess(w, rooms)
}

// Create stores a room and echoes the row.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, "Method not allowed", "Use POST method", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}

	room, err := h.roomSvc.CreateRoom(req.Name, r.Header.Get("X-User-ID"))
	if err != nil {
		respondWithError(w, "Room creation failed", err.Error(), http.StatusBadRequest)
		return
	}

	respondWithSuccess(w, room)
}

// Memberships lists the caller's memberships across all rooms.
func (h *RoomHandler) Memberships(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", "Use GET method", http.StatusMethodNotAllowed)
		return
	}

	memberships, err := h.roomSvc.ListMemberships(r.Header.Get("X-User-ID"))
	if err != nil {
		respondWithError(w, "Internal error", "Failed to list memberships", http.StatusInternalServerError)
		return
	}

	respondWithSuccess(w, memberships)
}

// RequestAccess inserts a pending membership for the caller.
func (h *RoomHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, "Method not allowed", "Use POST method", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		RoomID string `json:"room_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}
	if req.RoomID == "" {
		respondWithError(w, "Missing fields", "room_id is required", http.StatusBadRequest)
		return
	}

	m, err := h.roomSvc.RequestAccess(req.RoomID, r.Header.Get("X-User-ID"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrAlreadyMember) {
			status = http.StatusConflict
		}
		respondWithError(w, "Access request failed", err.Error(), status)
		return
	}

	respondWithSuccess(w, m)
}

// Resolve approves or rejects a pending membership. Owner only.
func (h *RoomHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, "Method not allowed", "Use POST method", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		MembershipID string `json:"membership_id"`
		Approve      bool   `json:"approve"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}
	if req.MembershipID == "" {
		respondWithError(w, "Missing fields", "membership_id is required", http.StatusBadRequest)
		return
	}

	m, err := h.roomSvc.ResolveRequest(req.MembershipID, r.Header.Get("X-User-ID"), req.Approve)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, services.ErrNotOwner):
			status = http.StatusForbidden
		case errors.Is(err, services.ErrRequestResolved):
			status = http.StatusConflict
		}
		respondWithError(w, "Resolve failed", err.Error(), status)
		return
	}

	respondWithSuccess(w, m)
}

// Pending lists a room's pending requests with requester emails. Owner only.
func (h *RoomHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", "Use GET method", http.StatusMethodNotAllowed)
		return
	}

	roomID := r.URL.Query().Get("roomId")
	if roomID == "" {
		respondWithError(w, "Missing parameter", "roomId query parameter is required", http.StatusBadRequest)
		return
	}

	requests, err := h.roomSvc.PendingRequests(roomID, r.Header.Get("X-User-ID"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotOwner) {
			status = http.StatusForbidden
		}
		respondWithError(w, "Pending list failed", err.Error(), status)
		return
	}

	respondWithSuccess(w, requests)
}

// WS attaches the caller to a room's change feed. Approved members only.
func (h *RoomHandler) WS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	if roomID == "" {
		respondWithError(w, "Missing parameter", "roomId query parameter is required", http.StatusBadRequest)
		return
	}

	// Browsers cannot set headers on websocket dials, so the token rides in
	// the query string.
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, "Missing parameter", "token query parameter is required", http.StatusBadRequest)
		return
	}

	uid, email, err := h.authSvc.ParseToken(token)
	if err != nil {
		respondWithError(w, "Unauthorized", "Invalid token", http.StatusUnauthorized)
		return
	}

	ok, err := h.msgSvc.CanAccess(roomID, uid)
	if err != nil {
		respondWithError(w, "Internal error", "Failed to check membership", http.StatusInternalServerError)
		return
	}
	if !ok {
		log.Printf("Feed subscription rejected for %s in room %s: not approved", email, roomID)
		respondWithError(w, "Forbidden", "Membership not approved for this room", http.StatusForbidden)
		return
	}

	h.hub.ServeWS(w, r, roomID, uid, email)
}
