package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playpool/plinko/internal/accounts"
	"github.com/playpool/plinko/internal/game"
	"github.com/playpool/plinko/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fakeClient(sessionID string) *Client {
	return &Client{sessionID: sessionID, playerID: 1, send: make(chan []byte, 8)}
}

func readType(t *testing.T, data []byte) string {
	t.Helper()
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("bad message %s: %v", data, err)
	}
	return env.Type
}

func TestHubRoomsAreIsolated(t *testing.T) {
	h := NewHub()
	a, b := fakeClient("s1"), fakeClient("s2")
	h.add(a)
	h.add(b)

	h.PublishSnapshot("s1", game.Snapshot{SessionID: "s1", Tick: 3})

	select {
	case msg := <-a.send:
		if got := readType(t, msg); got != "board_snapshot" {
			t.Errorf("type = %s", got)
		}
	default:
		t.Fatalf("s1 client got nothing")
	}
	if len(b.send) != 0 {
		t.Errorf("s2 client received a message for s1")
	}

	h.remove(a)
	if h.RoomSize("s1") != 0 {
		t.Errorf("room not cleaned up")
	}
	if _, ok := <-a.send; ok {
		t.Errorf("send channel should be closed")
	}
}

func TestHubBroadcastSkipsFullBuffers(t *testing.T) {
	h := NewHub()
	c := &Client{sessionID: "s1", send: make(chan []byte, 1)}
	h.add(c)
	h.BroadcastRaw("s1", []byte(`{"type":"a"}`))
	h.BroadcastRaw("s1", []byte(`{"type":"b"}`))
	if got := readType(t, <-c.send); got != "a" {
		t.Errorf("first message = %s", got)
	}
}

func TestDispatchRoutesEvents(t *testing.T) {
	h := NewHub()
	c := fakeClient("s1")
	h.add(c)

	landed, _ := json.Marshal(accounts.LandedMessage{
		Type:    "ball_landed",
		Landing: game.LandingEvent{SessionID: "s1", BallID: 4, Payout: 20},
	})
	h.Dispatch(landed)
	h.Dispatch([]byte(`{"type":"session_closed","session_id":"s1","reason":"idle"}`))
	h.Dispatch([]byte(`{"type":"session_closed","session_id":"other"}`))
	h.Dispatch([]byte(`not json`))

	if len(c.send) != 2 {
		t.Fatalf("got %d messages, want 2", len(c.send))
	}
	if got := readType(t, <-c.send); got != "ball_landed" {
		t.Errorf("first = %s", got)
	}
	if got := readType(t, <-c.send); got != "session_closed" {
		t.Errorf("second = %s", got)
	}
}

func TestParseBet(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"10", 10, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"2.5", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseBet(json.Number(tt.in))
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseBet(%s) = %d, %v", tt.in, got, err)
		}
		if err != nil && game.ErrorCode(err) != "InvalidBetAmount" {
			t.Errorf("ParseBet(%s) code = %s", tt.in, game.ErrorCode(err))
		}
	}
}

const testSecret = "ws-test-secret"

func startServer(t *testing.T) (*game.Manager, *httptest.Server) {
	t.Helper()
	presets, err := game.LoadPresets("")
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx)

	m := game.NewManager(presets, accounts.NewMemoryWallet(100), game.ManagerOptions{TickRate: 1000})
	m.SetSnapshotSink(hub)
	m.Start(ctx)

	srv := NewServer(hub, m, nil)
	r := gin.New()
	r.GET("/sessions/:id/ws", middleware.SessionAuth(testSecret), srv.HandleWebSocket())
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return m, ts
}

func dial(t *testing.T, ts *httptest.Server, sessionID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + sessionID + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitFor reads messages until one of the wanted type arrives.
func waitFor(t *testing.T, conn *websocket.Conn, want string) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message: %v", err)
		}
		if msg["type"] == want {
			return msg
		}
	}
}

func TestWebSocketDropAndFinish(t *testing.T) {
	m, ts := startServer(t)
	s, err := m.CreateSession(1, "", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	token, err := middleware.IssueSessionToken(testSecret, 1, s.ID, time.Minute)
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}
	conn := dial(t, ts, s.ID, token)
	waitFor(t, conn, "board_snapshot")

	conn.WriteJSON(map[string]interface{}{"type": "drop", "data": map[string]interface{}{"bet_amount": 2.5}})
	errMsg := waitFor(t, conn, "error")
	if errMsg["code"] != "InvalidBetAmount" {
		t.Errorf("error code = %v", errMsg["code"])
	}

	conn.WriteJSON(map[string]interface{}{"type": "drop", "data": map[string]interface{}{"bet_amount": 10}})
	accepted := waitFor(t, conn, "drop_accepted")
	data := accepted["data"].(map[string]interface{})
	if data["ball_id"].(float64) != 1 {
		t.Errorf("ball_id = %v", data["ball_id"])
	}

	// let the ball land before finishing
	clock, _ := m.Clock(s.ID)
	deadline := time.Now().Add(10 * time.Second)
	for !s.Idle() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	clock.Wait()

	conn.WriteJSON(map[string]interface{}{"type": "finish"})
	closed := waitFor(t, conn, "session_closed")
	if closed["reason"] != "finished" {
		t.Errorf("reason = %v", closed["reason"])
	}
	if _, err := m.GetSession(s.ID); err == nil {
		t.Errorf("session still registered after finish")
	}
}

func TestWebSocketRejectsForeignToken(t *testing.T) {
	m, ts := startServer(t)
	s, _ := m.CreateSession(1, "", "")
	token, _ := middleware.IssueSessionToken(testSecret, 1, "another-session", time.Minute)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + s.ID + "/ws?token=" + token
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("dial should fail")
	}
	if resp == nil || resp.StatusCode != 403 {
		t.Errorf("status = %v", resp)
	}
}
