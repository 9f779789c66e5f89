package hmsrest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	hmsauth "github.com/ahmadijaz02/hms-go-chat/hms-auth"
	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	hmsws "github.com/ahmadijaz02/hms-go-chat/hms-ws"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

var validator = hmsauth.ValidatorFunc(func(token string) bool { return token == "good" })

type brokenStore struct{ hmschat.Store }

func (brokenStore) ListChronological(context.Context, int) ([]hmschat.ChatMessage, error) {
	return nil, errors.New("connection refused")
}

func routes(store hmschat.Store, registry *hmsws.Registry) http.Handler {
	r := MiddlewaresWithLogger(zerolog.Nop(), chi.NewRouter())
	r.Get("/health", HealthHandler)
	r.Get("/messages", MessagesHandler(store, validator, 2))
	r.Get("/online", OnlineUsersHandler(registry, validator))
	return r
}

func get(t *testing.T, h http.Handler, path, auth string) (int, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestMessagesHandler(t *testing.T) {
	ctx := context.Background()
	store := hmschat.NewMemoryStore(0)
	for _, content := range []string{"one", "two", "three"} {
		assert.NoError(t, store.Append(ctx, hmschat.ChatMessage{Sender: "u1", SenderType: hmschat.RolePatient, Content: content}))
	}
	h := routes(store, hmsws.NewRegistry())

	t.Run("ok", func(t *testing.T) {
		code, body := get(t, h, "/messages", "Bearer good")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["success"])

		data := body["data"].([]interface{})
		assert.Len(t, data, 2)
		assert.Equal(t, "two", data[0].(map[string]interface{})["content"])
		assert.Equal(t, "three", data[1].(map[string]interface{})["content"])
	})

	t.Run("empty history", func(t *testing.T) {
		code, body := get(t, routes(hmschat.NewMemoryStore(0), hmsws.NewRegistry()), "/messages", "Bearer good")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, []interface{}{}, body["data"])
	})

	t.Run("no token", func(t *testing.T) {
		code, body := get(t, h, "/messages", "")
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "No token provided", body["message"])
	})

	t.Run("invalid token", func(t *testing.T) {
		code, body := get(t, h, "/messages", "Bearer bad")
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Invalid token", body["message"])
	})

	t.Run("storage error", func(t *testing.T) {
		code, body := get(t, routes(brokenStore{}, hmsws.NewRegistry()), "/messages", "Bearer good")
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Error fetching messages", body["message"])
	})
}

func TestOnlineUsersHandler(t *testing.T) {
	registry := hmsws.NewRegistry()
	registry.Join("c1", "u1", hmsws.NewPresenceRecord("u1", "Alice", hmschat.RolePatient))
	h := routes(hmschat.NewMemoryStore(0), registry)

	code, body := get(t, h, "/online", "Bearer good")
	assert.Equal(t, http.StatusOK, code)
	data := body["data"].([]interface{})
	assert.Len(t, data, 1)
	assert.Equal(t, "Alice", data[0].(map[string]interface{})["name"])

	code, _ = get(t, h, "/online", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestHealthHandler(t *testing.T) {
	code, body := get(t, routes(hmschat.NewMemoryStore(0), hmsws.NewRegistry()), "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

type brokenSearcher struct{}

func (brokenSearcher) Search(context.Context, string, int) ([]hmschat.ChatMessage, error) {
	return nil, errors.New("connection refused")
}

func (brokenSearcher) Stats(context.Context) (hmschat.Statistics, error) {
	return hmschat.Statistics{}, errors.New("connection refused")
}

func searchRoutes(searcher hmschat.Searcher) http.Handler {
	r := MiddlewaresWithLogger(zerolog.Nop(), chi.NewRouter())
	r.Get("/messages/search", SearchHandler(searcher, validator))
	r.Get("/statistics", StatisticsHandler(searcher, validator))
	return r
}

func TestSearchHandler(t *testing.T) {
	ctx := context.Background()
	store := hmschat.NewMemoryStore(0)
	for _, content := range []string{"take one tablet", "no fever today", "Tablet finished"} {
		assert.NoError(t, store.Append(ctx, hmschat.ChatMessage{Sender: "u1", SenderType: hmschat.RolePatient, Content: content}))
	}
	h := searchRoutes(store)

	t.Run("newest first", func(t *testing.T) {
		code, body := get(t, h, "/messages/search?query=tablet", "Bearer good")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["success"])

		data := body["data"].([]interface{})
		assert.Len(t, data, 2)
		assert.Equal(t, "Tablet finished", data[0].(map[string]interface{})["content"])
		assert.Equal(t, "take one tablet", data[1].(map[string]interface{})["content"])
	})

	t.Run("no match", func(t *testing.T) {
		code, body := get(t, h, "/messages/search?query=x-ray", "Bearer good")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, []interface{}{}, body["data"])
	})

	t.Run("missing query", func(t *testing.T) {
		code, body := get(t, h, "/messages/search", "Bearer good")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Search query is required", body["message"])
	})

	t.Run("no token", func(t *testing.T) {
		code, _ := get(t, h, "/messages/search?query=tablet", "")
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("storage error", func(t *testing.T) {
		code, body := get(t, searchRoutes(brokenSearcher{}), "/messages/search?query=tablet", "Bearer good")
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "Error searching messages", body["message"])
	})
}

func TestStatisticsHandler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		var (
			ctx   = context.Background()
			store = hmschat.NewMemoryStore(0)
			at    = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		)
		assert.NoError(t, store.Append(ctx, hmschat.ChatMessage{Sender: "d1", SenderType: hmschat.RoleDoctor, Content: "hello", Timestamp: at}))
		assert.NoError(t, store.Append(ctx, hmschat.ChatMessage{Sender: "p1", SenderType: hmschat.RolePatient, Content: "hi", Timestamp: at}))
		assert.NoError(t, store.Append(ctx, hmschat.ChatMessage{Sender: "p1", SenderType: hmschat.RolePatient, Content: "thanks", Timestamp: at.Add(time.Hour)}))

		code, body := get(t, searchRoutes(store), "/statistics", "Bearer good")
		assert.Equal(t, http.StatusOK, code)

		data := body["data"].(map[string]interface{})
		assert.EqualValues(t, 3, data["totalMessages"])
		assert.Equal(t, map[string]interface{}{"doctor": float64(1), "patient": float64(2)}, data["byType"])
		day := data["mostActiveDay"].(map[string]interface{})
		assert.Equal(t, "2024-05-01", day["date"])
		assert.EqualValues(t, 3, day["count"])
	})

	t.Run("empty store", func(t *testing.T) {
		code, body := get(t, searchRoutes(hmschat.NewMemoryStore(0)), "/statistics", "Bearer good")
		assert.Equal(t, http.StatusOK, code)

		data := body["data"].(map[string]interface{})
		assert.EqualValues(t, 0, data["totalMessages"])
		assert.Nil(t, data["mostActiveDay"])
	})

	t.Run("storage error", func(t *testing.T) {
		code, body := get(t, searchRoutes(brokenSearcher{}), "/statistics", "Bearer good")
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "Error fetching statistics", body["message"])
	})
}
