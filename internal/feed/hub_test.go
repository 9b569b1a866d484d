package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftpursuit/arena/internal/logging"
	"driftpursuit/arena/internal/sim"
	"driftpursuit/arena/internal/wire"
)

func startHub(t *testing.T, opts Options) (*Hub, *httptest.Server) {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.NewTestLogger()
	}
	hub := NewHub(opts)
	server := httptest.NewServer(NewMux(hub, opts.Logger, func() any { return map[string]int{"tick": 7} }))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	return websocket.DefaultDialer.Dial(url, header)
}

func waitForViewers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestHubPublishesFrames(t *testing.T) {
	hub, server := startHub(t, Options{})
	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForViewers(t, hub, 1)

	require.NoError(t, hub.Publish(&wire.Frame{Tick: 12, FrameTime: 0.2, Explosions: []wire.Explosion{{X: 1, Y: 2, Scale: 1}}}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	frame, err := wire.Unmarshal(payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), frame.Tick)
	assert.Len(t, frame.Explosions, 1)

	frames, dropped := hub.Stats()
	assert.Equal(t, uint64(1), frames)
	assert.Zero(t, dropped)
}

func TestHubForwardsInputAndSkipsGarbage(t *testing.T) {
	inputs := make(chan sim.Input, 4)
	hub, server := startHub(t, Options{OnInput: func(in sim.Input) { inputs <- in }})
	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForViewers(t, hub, 1)

	//1.- Garbage and unknown types are ignored without dropping the viewer.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat"}`)))
	require.NoError(t, conn.WriteJSON(Message{Type: MessageInput, Input: sim.Input{Up: true, Fire: true}}))

	select {
	case got := <-inputs:
		assert.Equal(t, sim.Input{Up: true, Fire: true}, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("input was not forwarded")
	}
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHubRateLimitsInput(t *testing.T) {
	inputs := make(chan sim.Input, 4)
	hub, server := startHub(t, Options{InputRate: 1, OnInput: func(in sim.Input) { inputs <- in }})
	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForViewers(t, hub, 1)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageInput, Input: sim.Input{Left: true}}))
	require.NoError(t, conn.WriteJSON(Message{Type: MessageInput, Input: sim.Input{Right: true}}))

	select {
	case got := <-inputs:
		assert.Equal(t, sim.Input{Left: true}, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("input was not forwarded")
	}
	select {
	case got := <-inputs:
		t.Fatalf("second input within the window should be dropped, got %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHubEnforcesCapacityAndOrigins(t *testing.T) {
	hub, server := startHub(t, Options{MaxClients: 1, AllowedOrigins: []string{"http://viewer.local"}})

	//1.- Foreign origins are refused by the upgrader.
	_, resp, err := dial(t, server, http.Header{"Origin": []string{"http://evil.local"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dial(t, server, http.Header{"Origin": []string{"http://viewer.local"}})
	require.NoError(t, err)
	defer conn.Close()
	waitForViewers(t, hub, 1)

	//2.- The cap rejects the second viewer.
	_, resp, err = dial(t, server, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHubCloseDisconnectsViewers(t *testing.T) {
	hub, server := startHub(t, Options{})
	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForViewers(t, hub, 1)

	hub.Close()
	assert.ErrorIs(t, hub.Publish(&wire.Frame{Tick: 1}), ErrClosed)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error %v", err)
}

func TestMuxServesProbes(t *testing.T) {
	_, server := startHub(t, Options{})

	req, err := http.NewRequest(http.MethodGet, server.URL+"/status", nil)
	require.NoError(t, err)
	req.Header.Set(logging.TraceIDHeader, "trace-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "trace-123", resp.Header.Get(logging.TraceIDHeader))

	var doc struct {
		Viewers int            `json:"viewers"`
		Host    map[string]int `json:"host"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, 0, doc.Viewers)
	assert.Equal(t, 7, doc.Host["tick"])

	live, err := http.Get(server.URL + "/livez")
	require.NoError(t, err)
	defer live.Body.Close()
	assert.Equal(t, http.StatusOK, live.StatusCode)
}
