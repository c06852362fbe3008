package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
)

func nopLogger() *logger.Logger {
	return logger.Nop()
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sectors"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readRanking(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg StreamMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(NewRouter(Routes{Stream: hub}, nil))
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 5*time.Millisecond)

	hub.Publish(&contracts.SectorRanking{RunID: "run-1"})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readRanking(t, conn)
		assert.Equal(t, "sector_ranking", msg.Type)
		require.NotNil(t, msg.Data)
		assert.Equal(t, "run-1", msg.Data.RunID)
	}
}

func TestHub_LateJoinerGetsLatest(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(NewRouter(Routes{Stream: hub}, nil))
	defer srv.Close()

	hub.Publish(&contracts.SectorRanking{RunID: "run-1"})
	hub.Publish(&contracts.SectorRanking{RunID: "run-2"})

	msg := readRanking(t, dial(t, srv))
	assert.Equal(t, "run-2", msg.Data.RunID)
}

func TestHub_Disconnect(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)

	// 클라이언트가 없어도 안전
	hub.Publish(&contracts.SectorRanking{RunID: "run-3"})
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "server sends close frame")
}
