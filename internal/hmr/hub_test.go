package hmr

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readPayload(t *testing.T, conn *websocket.Conn) Payload {
	t.Helper()
	var p Payload
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&p))
	return p
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_FullReloadReachesEveryClient(t *testing.T) {
	hub := NewHub(Config{})
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a, b := dial(t, srv), dial(t, srv)
	assert.Equal(t, TypeConnected, readPayload(t, a).Type)
	assert.Equal(t, TypeConnected, readPayload(t, b).Type)
	waitForClients(t, hub, 2)

	require.NoError(t, hub.FullReload())

	assert.Equal(t, Payload{Type: TypeFullReload}, readPayload(t, a))
	assert.Equal(t, Payload{Type: TypeFullReload}, readPayload(t, b))
}

func TestHub_SendWithNoClients(t *testing.T) {
	hub := NewHub(Config{})
	assert.NoError(t, hub.FullReload())
}

func TestHub_ClientDisconnectIsRemoved(t *testing.T) {
	hub := NewHub(Config{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	readPayload(t, conn)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(Config{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	readPayload(t, conn)
	waitForClients(t, hub, 1)

	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())
	assert.ErrorIs(t, hub.FullReload(), ErrHubClosed)
	assert.Zero(t, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestHub_RejectsPlainRequests(t *testing.T) {
	hub := NewHub(Config{})
	rec := httptest.NewRecorder()

	hub.ServeHTTP(rec, httptest.NewRequest("GET", "/__ssr_reload", nil))

	assert.Equal(t, 400, rec.Code)
	assert.Zero(t, hub.Clients())
}

func TestClientScript(t *testing.T) {
	t.Run("standalone", func(t *testing.T) {
		js := ClientScript("/", "")
		assert.Contains(t, js, `const socketPath = "/__ssr_reload";`)
		assert.Contains(t, js, `"full-reload"`)
		assert.Contains(t, js, "location.reload()")
		assert.NotContains(t, js, "import ")
	})

	t.Run("with base and upstream client", func(t *testing.T) {
		js := ClientScript("/app/", "/app/__ssr_reload/vite-client")
		assert.True(t, strings.HasPrefix(js, `import "/app/__ssr_reload/vite-client";`))
		assert.Contains(t, js, `"/app/__ssr_reload"`)
	})
}
