package didar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crm-chatbot-api/server/internal/agent/model"
	errx "github.com/crm-chatbot-api/server/internal/core/error"
)

type capturedRequest struct {
	Method string
	Path   string
	APIKey string
	Body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*Client, *[]capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(b, &body)
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			APIKey: r.URL.Query().Get("apikey"),
			Body:   body,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{APIKey: "secret key", BaseURL: srv.URL + "/api/", Timeout: time.Second})
	require.NoError(t, err)
	return c, &seen
}

func TestClient_ListUnwrapsEnvelope(t *testing.T) {
	c, seen := newTestServer(t, http.StatusOK, `{"Response":[{"Id":"u1","DisplayName":"Ali"},{"Id":"u2","DisplayName":"Sara"}],"Error":null}`)

	data, err := c.List(context.Background(), model.EntityUser)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"Id":"u1","DisplayName":"Ali"},{"Id":"u2","DisplayName":"Sara"}]`, string(data))

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/user/list", req.Path)
	assert.Equal(t, "secret key", req.APIKey)
	assert.Empty(t, req.Body)
}

func TestClient_SearchSendsCriteria(t *testing.T) {
	c, seen := newTestServer(t, http.StatusOK, `{"Response":{"List":[],"TotalCount":0}}`)

	_, err := c.Search(context.Background(), model.EntityContact, "Reza")
	require.NoError(t, err)

	req := (*seen)[0]
	assert.Equal(t, "/api/contact/search", req.Path)
	assert.Equal(t, map[string]any{"Keyword": "Reza"}, req.Body["Criteria"])
	assert.EqualValues(t, 0, req.Body["From"])
	assert.EqualValues(t, DefaultSearchLimit, req.Body["Limit"])
}

func TestClient_DetailAndCards(t *testing.T) {
	c, seen := newTestServer(t, http.StatusOK, `{"Id":"d1","Title":"Big deal"}`)

	data, err := c.Detail(context.Background(), model.EntityDeal, "d1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Id":"d1","Title":"Big deal"}`, string(data))
	assert.Equal(t, "/api/deal/detail", (*seen)[0].Path)
	assert.Equal(t, "d1", (*seen)[0].Body["Id"])

	_, err = c.Cards(context.Background(), "owner-7")
	require.NoError(t, err)
	assert.Equal(t, "/api/card/search", (*seen)[1].Path)
	assert.Equal(t, map[string]any{"OwnerId": "owner-7"}, (*seen)[1].Body["Criteria"])
}

func TestClient_Errors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		c, _ := newTestServer(t, http.StatusUnauthorized, `{"Error":"bad key"}`)
		_, err := c.List(context.Background(), model.EntityProduct)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("api error field", func(t *testing.T) {
		c, _ := newTestServer(t, http.StatusOK, `{"Response":null,"Error":"quota exceeded"}`)
		_, err := c.List(context.Background(), model.EntityProduct)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("invalid json", func(t *testing.T) {
		c, _ := newTestServer(t, http.StatusOK, `<html>oops</html>`)
		_, err := c.List(context.Background(), model.EntityProduct)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid json")
	})

	t.Run("unsupported operation", func(t *testing.T) {
		c, seen := newTestServer(t, http.StatusOK, `{}`)
		_, err := c.Detail(context.Background(), model.EntityUser, "u1")
		require.Error(t, err)
		_, err = c.Detail(context.Background(), model.EntityDeal, " ")
		require.Error(t, err)
		assert.Empty(t, *seen)
	})
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
