package handlers

import (
	"net/http"
	"strconv"

	"livechat/content"
)

// ContentHandler serves the published articles from the content backend.
// These routes are public; the chat API's auth middleware does not apply.
type ContentHandler struct {
	client *content.Client
}

func NewContentHandler(c *content.Client) *ContentHandler { return &ContentHandler{client: c} }

const contentUnavailable = "Articles are temporarily unavailable."

// Posts returns the newest articles. ?first caps the page size.
func (h *ContentHandler) Posts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", "Use GET method", http.StatusMethodNotAllowed)
		return
	}
	if !h.client.Configured() {
		respondWithError(w, "Content unavailable", contentUnavailable, http.StatusServiceUnavailable)
		return
	}

	first := 10
	if v := r.URL.Query().Get("first"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			first = n
		}
	}

	posts, err := h.client.RecentPosts(r.Context(), first)
	if err != nil {
		respondWithError(w, "Content unavailable", contentUnavailable, http.StatusServiceUnavailable)
		return
	}
	respondWithSuccess(w, posts)
}

// Post returns one article by slug.
func (h *ContentHandler) Post(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", "Use GET method", http.StatusMethodNotAllowed)
		return
	}

	slug := r.URL.Query().Get("slug")
	if slug == "" {
		respondWithError(w, "Missing parameter", "slug query parameter is required", http.StatusBadRequest)
		return
	}
	if !h.client.Configured() {
		respondWithError(w, "Content unavailable", contentUnavailable, http.StatusServiceUnavailable)
		return
	}

	post, err := h.client.PostBySlug(r.Context(), slug)
	if err != nil {
		respondWithError(w, "Content unavailable", contentUnavailable, http.StatusServiceUnavailable)
		return
	}
	if post == nil {
		respondWithError(w, "Not found", "No article with that slug", http.StatusNotFound)
		return
	}
	respondWithSuccess(w, post)
}
