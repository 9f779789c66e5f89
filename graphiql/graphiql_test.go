package graphiql

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tj/assert"
)

func TestNew(t *testing.T) {
	w := httptest.NewRecorder()
	New("/chat-history/graphql").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "chat-history")
}
