package stream

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/experiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	msg, err := Encode(MsgGrab, Pointer{Origin: [3]float64{1, 2, 3}, Direction: [3]float64{0, 0, -1}})
	require.NoError(t, err)

	env, err := DecodeEnvelope(msg)
	require.NoError(t, err)
	assert.Equal(t, MsgGrab, env.T)

	p, err := DecodePayload[Pointer](env)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 2, 3}, p.Origin)

	release, err := Encode(MsgRelease, nil)
	require.NoError(t, err)
	env, err = DecodeEnvelope(release)
	require.NoError(t, err)
	_, err = DecodePayload[Pointer](env)
	assert.Error(t, err, "release carries no payload")

	_, err = Encode("", Welcome{})
	assert.Error(t, err)
	_, err = DecodeEnvelope(nil)
	assert.Error(t, err)
	_, err = DecodeEnvelope([]byte(`{"p":{}}`))
	assert.Error(t, err)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := DecodeEnvelope(msg)
	require.NoError(t, err)
	return env
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	require.NoError(t, hub.SetWelcome(Welcome{Scene: "rope", Particles: 2, Edges: [][2]int{{0, 1}}}))

	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv.URL)
	env := read(t, conn)
	require.Equal(t, MsgWelcome, env.T)
	welcome, err := DecodePayload[Welcome](env)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 1}}, welcome.Edges)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Broadcast(MsgState, State{Tick: 7, Positions: [][3]float64{{0, 1, 0}}}))

	env = read(t, conn)
	require.Equal(t, MsgState, env.T)
	st, err := DecodePayload[State](env)
	require.NoError(t, err)
	assert.Equal(t, 7, st.Tick)

	msg, err := Encode(MsgRelease, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))
	select {
	case in := <-hub.Inputs():
		assert.Equal(t, MsgRelease, in.T)
	case <-time.After(2 * time.Second):
		t.Fatal("client message not delivered")
	}

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServerStreamsAndGrabs(t *testing.T) {
	cfg := config.GetPreset("rope", "short")
	server := NewServer(cfg, experiment.NewRegistry().Build)
	server.Every = 1

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	conn := dial(t, "http://"+ln.Addr().String())
	env := read(t, conn)
	require.Equal(t, MsgWelcome, env.T)
	welcome, err := DecodePayload[Welcome](env)
	require.NoError(t, err)
	assert.Equal(t, "rope", welcome.Scene)
	assert.NotEmpty(t, welcome.Edges)

	env = read(t, conn)
	require.Equal(t, MsgState, env.T)
	st, err := DecodePayload[State](env)
	require.NoError(t, err)
	require.Len(t, st.Positions, welcome.Particles)
	assert.Equal(t, -1, st.Grabbed)

	// Aim straight down at the free end of the rope.
	last := welcome.Particles - 1
	end := mgl64.Vec3(st.Positions[last])
	grab, err := Encode(MsgGrab, Pointer{Origin: end.Add(mgl64.Vec3{0, 5, 0}), Direction: [3]float64{0, -1, 0}})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, grab))

	grabbed := false
	for i := 0; i < 200 && !grabbed; i++ {
		env = read(t, conn)
		st, err = DecodePayload[State](env)
		require.NoError(t, err)
		grabbed = st.Grabbed >= 0
	}
	assert.True(t, grabbed, "grab request should attach a particle")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerBuildError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scene = "fluid"
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	err = NewServer(cfg, experiment.NewRegistry().Build).Serve(context.Background(), ln)
	assert.Error(t, err)
}
