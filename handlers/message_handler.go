package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"livechat/services"
)

type MessageHandler struct {
	svc     *services.MessageService
	authSvc *services.AuthService
}

func NewMessageHandler(s *services.MessageService, a *services.AuthService) *MessageHandler {
	return &MessageHandler{svc: s, authSvc: a}
}

func (h *MessageHandler) WithAuth(next http.HandlerFunc) http.HandlerFunc {
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

// ListMessages returns a room's history oldest-first. Approved members only.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", "Use GET method", http.StatusMethodNotAllowed)
		return
	}

	roomID := r.URL.Query().Get("roomId")
	if roomID == "" {
		respondWithError(w, "Missing parameter", "roomId query parameter is required", http.StatusBadRequest)
		return
	}

	msgs, err := h.svc.List(roomID, r.Header.Get("X-User-ID"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotApproved) {
			status = http.StatusForbidden
		}
		respondWithError(w, "Failed to fetch messages", err.Error(), status)
		return
	}

	respondWithSuccess(w, msgs)
}

// GetMessage is the echo read for change-feed events: one row by id with the
// author email joined.
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", "Use GET method", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		respondWithError(w, "Missing parameter", "id query parameter is required", http.StatusBadRequest)
		return
	}

	msg, err := h.svc.GetByID(id, r.Header.Get("X-User-ID"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotApproved) {
			status = http.StatusForbidden
		}
		respondWithError(w, "Failed to fetch message", err.Error(), status)
		return
	}

	respondWithSuccess(w, msg)
}

// SendMessage stores a message and echoes the row. The feed broadcast
// happens inside the service.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, "Method not allowed", "Use POST method", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		RoomID  string `json:"room_id"`
		Content string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}
	if req.RoomID == "" {
		respondWithError(w, "Missing fields", "room_id is required", http.StatusBadRequest)
		return
	}

	msg, err := h.svc.Send(req.RoomID, r.Header.Get("X-User-ID"), req.Content)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotApproved) {
			status = http.StatusForbidden
		}
		respondWithError(w, "Send failed", err.Error(), status)
		return
	}

	respondWithSuccess(w, msg)
}
