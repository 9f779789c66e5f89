package hmsrest

import (
	"encoding/json"
	"net/http"

	hmsauth "github.com/ahmadijaz02/hms-go-chat/hms-auth"
	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	hmsws "github.com/ahmadijaz02/hms-go-chat/hms-ws"
	"github.com/rs/zerolog"
)

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}

// authorized writes the 401 response and returns false when the request
// carries no acceptable bearer token.
func authorized(w http.ResponseWriter, req *http.Request, validator hmsauth.Validator) bool {
	token := hmsauth.BearerToken(req.Header.Get("Authorization"))
	if token == "" {
		fail(w, http.StatusUnauthorized, "No token provided")
		return false
	}
	if !validator.Validate(token) {
		fail(w, http.StatusUnauthorized, "Invalid token")
		return false
	}
	return true
}

// RequireToken rejects requests without an acceptable bearer token.
func RequireToken(validator hmsauth.Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if authorized(w, req, validator) {
				next.ServeHTTP(w, req)
			}
		})
	}
}

// MessagesHandler serves the latest limit messages, oldest first.
func MessagesHandler(store hmschat.Store, validator hmsauth.Validator, limit int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if !authorized(w, req, validator) {
			return
		}

		messages, err := store.ListChronological(req.Context(), limit)
		if err != nil {
			zerolog.Ctx(req.Context()).Error().Err(err).Msg("unable to fetch messages")
			fail(w, http.StatusInternalServerError, "Error fetching messages")
			return
		}
		if messages == nil {
			messages = []hmschat.ChatMessage{}
		}
		writeJSON(w, http.StatusOK, response{Success: true, Data: messages})
	}
}

// SearchHandler serves messages whose content contains the query
// parameter, newest first.
func SearchHandler(searcher hmschat.Searcher, validator hmsauth.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if !authorized(w, req, validator) {
			return
		}

		query := req.URL.Query().Get("query")
		if query == "" {
			fail(w, http.StatusBadRequest, "Search query is required")
			return
		}

		messages, err := searcher.Search(req.Context(), query, hmschat.DefaultSearchLimit)
		if err != nil {
			zerolog.Ctx(req.Context()).Error().Err(err).Str("query", query).Msg("unable to search messages")
			fail(w, http.StatusInternalServerError, "Error searching messages")
			return
		}
		if messages == nil {
			messages = []hmschat.ChatMessage{}
		}
		writeJSON(w, http.StatusOK, response{Success: true, Data: messages})
	}
}

// StatisticsHandler serves message totals by sender type and the busiest
// day.
func StatisticsHandler(searcher hmschat.Searcher, validator hmsauth.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if !authorized(w, req, validator) {
			return
		}

		stats, err := searcher.Stats(req.Context())
		if err != nil {
			zerolog.Ctx(req.Context()).Error().Err(err).Msg("unable to compute statistics")
			fail(w, http.StatusInternalServerError, "Error fetching statistics")
			return
		}
		writeJSON(w, http.StatusOK, response{Success: true, Data: stats})
	}
}

// OnlineUsersHandler serves the current roster.
func OnlineUsersHandler(registry *hmsws.Registry, validator hmsauth.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if !authorized(w, req, validator) {
			return
		}
		writeJSON(w, http.StatusOK, response{Success: true, Data: registry.SnapshotOnlineUsers()})
	}
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
