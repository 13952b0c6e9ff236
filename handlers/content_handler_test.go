package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livechat/content"
)

func TestContentPostsProxiesBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"posts":{"nodes":[
			{"title":"Bitcoin Basics","slug":"bitcoin-basics","date":"2024-01-01"}
		]}}}`))
	}))
	defer backend.Close()

	h := NewContentHandler(content.NewClient(backend.URL))

	req := httptest.NewRequest(http.MethodGet, "/api/posts?first=5", nil)
	w := httptest.NewRecorder()
	h.Posts(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool           `json:"success"`
		Data    []content.Post `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "bitcoin-basics", resp.Data[0].Slug)
}

func TestContentRoutesDegradeWhenUnconfigured(t *testing.T) {
	h := NewContentHandler(content.NewClient(""))

	w := httptest.NewRecorder()
	h.Posts(w, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), contentUnavailable)

	w = httptest.NewRecorder()
	h.Post(w, httptest.NewRequest(http.MethodGet, "/api/posts/get?slug=x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestContentPostNotFound(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"post":null}}`))
	}))
	defer backend.Close()

	h := NewContentHandler(content.NewClient(backend.URL))

	w := httptest.NewRecorder()
	h.Post(w, httptest.NewRequest(http.MethodGet, "/api/posts/get?slug=missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
