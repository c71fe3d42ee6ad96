package achievements

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"vaultmarket/config"
	"vaultmarket/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(url string) *Client {
	return NewClient(config.AchievementsConfig{
		URL:     url,
		Timeout: 2 * time.Second,
	}, logger.NewWithWriter("error", nil))
}

func TestClient_NotifyOrderSettled(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	var received notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := newClient(srv.URL)
	err := client.NotifyOrderSettled(context.Background(), userID, "buyer", orderID)
	require.NoError(t, err)

	assert.Equal(t, userID, received.UserID)
	assert.Equal(t, "buyer", received.Role)
	assert.Equal(t, orderID, received.OrderID)
	assert.Equal(t, "order_settled", received.Event)
}

func TestClient_NotifyOrderSettled_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newClient(srv.URL)
	err := client.NotifyOrderSettled(context.Background(), uuid.New(), "seller", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NotifyOrderSettled_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newClient(srv.URL)
	err := client.NotifyOrderSettled(context.Background(), uuid.New(), "buyer", uuid.New())
	assert.Error(t, err)
}
