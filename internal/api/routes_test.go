package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playpool/plinko/internal/accounts"
	"github.com/playpool/plinko/internal/config"
	"github.com/playpool/plinko/internal/game"
	"github.com/playpool/plinko/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router  *gin.Engine
	manager *game.Manager
	history *accounts.MemoryHistory
}

func newTestAPI(t *testing.T, opts game.ManagerOptions) *testAPI {
	t.Helper()
	cfg := &config.Config{
		Environment:       "test",
		JWTSecret:         "api-test-secret",
		SessionTimeoutMin: 10,
		HistoryLimit:      50,
	}
	presets, err := game.LoadPresets("")
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ledger := accounts.NewMemoryWallet(1000)
	history := accounts.NewMemoryHistory()
	m := game.NewManager(presets, ledger, opts)
	hub := ws.NewHub()
	go hub.Run(ctx)
	m.SetSnapshotSink(hub)
	m.Start(ctx)

	settler := accounts.NewSettler(ledger, history, nil)
	settler.Local = hub.BroadcastLanded
	go settler.Run(ctx, m.Landings())

	router := gin.New()
	SetupRoutes(router, Deps{
		Manager: m,
		Players: accounts.NewMemoryPlayers(),
		Ledger:  ledger,
		History: history,
		WS:      ws.NewServer(hub, m, nil),
	}, cfg)
	return &testAPI{router: router, manager: m, history: history}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: bad JSON %q", method, path, w.Body.String())
		}
	}
	return w.Code, out
}

func (a *testAPI) newPlayer(t *testing.T) int {
	t.Helper()
	code, body := a.do(t, "POST", "/api/v1/players", "", map[string]string{"display_name": "tester"})
	if code != http.StatusCreated {
		t.Fatalf("create player = %d %v", code, body)
	}
	return int(body["player"].(map[string]interface{})["id"].(float64))
}

func (a *testAPI) newSession(t *testing.T, playerID int) (string, string) {
	t.Helper()
	code, body := a.do(t, "POST", "/api/v1/sessions", "", map[string]interface{}{"player_id": playerID})
	if code != http.StatusCreated {
		t.Fatalf("create session = %d %v", code, body)
	}
	return body["session_id"].(string), body["token"].(string)
}

func TestHealthAndBoards(t *testing.T) {
	a := newTestAPI(t, game.ManagerOptions{TickRate: 1000})

	code, body := a.do(t, "GET", "/api/v1/health", "", nil)
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", code, body)
	}

	code, body = a.do(t, "GET", "/api/v1/boards", "", nil)
	if code != http.StatusOK {
		t.Fatalf("boards = %d", code)
	}
	boards := body["boards"].([]interface{})
	names := map[string]bool{}
	for _, b := range boards {
		names[b.(map[string]interface{})["name"].(string)] = true
	}
	if !names["classic"] || !names["prototype"] {
		t.Errorf("boards = %v", names)
	}
}

func TestDropSettlesIntoBalanceAndHistory(t *testing.T) {
	a := newTestAPI(t, game.ManagerOptions{TickRate: 1000})
	playerID := a.newPlayer(t)
	sessionID, token := a.newSession(t, playerID)
	base := "/api/v1/sessions/" + sessionID

	code, body := a.do(t, "POST", base+"/drop", token, map[string]interface{}{"bet_amount": 10})
	if code != http.StatusAccepted || body["ball_id"].(float64) != 1 {
		t.Fatalf("drop = %d %v", code, body)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		drops, _ := a.history.ListDrops(context.Background(), playerID, 10)
		if len(drops) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("drop was never settled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	code, body = a.do(t, "GET", "/api/v1/player/"+strconv.Itoa(playerID)+"/history", "", nil)
	if code != http.StatusOK {
		t.Fatalf("history = %d", code)
	}
	drops := body["drops"].([]interface{})
	payout := drops[0].(map[string]interface{})["payout"].(float64)
	if body["total_wagered"].(float64) != 10 {
		t.Errorf("total_wagered = %v", body["total_wagered"])
	}

	code, body = a.do(t, "GET", "/api/v1/player/"+strconv.Itoa(playerID)+"/balance", "", nil)
	if code != http.StatusOK || body["balance"].(float64) != 1000-10+payout {
		t.Errorf("balance = %d %v (payout %v)", code, body, payout)
	}

	code, body = a.do(t, "GET", base+"/snapshot", token, nil)
	if code != http.StatusOK || body["session_id"] != sessionID {
		t.Errorf("snapshot = %d %v", code, body)
	}

	for {
		code, body = a.do(t, "POST", base+"/finish", token, nil)
		if code != http.StatusOK {
			t.Fatalf("finish = %d %v", code, body)
		}
		if body["closed"] == true {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session never closed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	code, _ = a.do(t, "POST", base+"/drop", token, map[string]interface{}{"bet_amount": 10})
	if code != http.StatusNotFound {
		t.Errorf("drop after close = %d", code)
	}
}

func TestDropErrors(t *testing.T) {
	a := newTestAPI(t, game.ManagerOptions{TickRate: 1000})
	playerID := a.newPlayer(t)
	sessionID, token := a.newSession(t, playerID)
	base := "/api/v1/sessions/" + sessionID

	tests := []struct {
		name  string
		token string
		body  interface{}
		code  int
		ecode string
	}{
		{"no token", "", map[string]interface{}{"bet_amount": 10}, http.StatusUnauthorized, ""},
		{"bad token", "nope", map[string]interface{}{"bet_amount": 10}, http.StatusUnauthorized, ""},
		{"fractional", token, map[string]interface{}{"bet_amount": 2.5}, http.StatusBadRequest, "InvalidBetAmount"},
		{"zero", token, map[string]interface{}{"bet_amount": 0}, http.StatusBadRequest, "InvalidBetAmount"},
		{"negative", token, map[string]interface{}{"bet_amount": -3}, http.StatusBadRequest, "InvalidBetAmount"},
		{"missing", token, map[string]interface{}{}, http.StatusBadRequest, "InvalidBetAmount"},
		{"too big", token, map[string]interface{}{"bet_amount": 5000}, http.StatusPaymentRequired, "InsufficientBalance"},
	}
	for _, tt := range tests {
		code, body := a.do(t, "POST", base+"/drop", tt.token, tt.body)
		if code != tt.code {
			t.Errorf("%s: status = %d, want %d (%v)", tt.name, code, tt.code, body)
		}
		if tt.ecode != "" && body["code"] != tt.ecode {
			t.Errorf("%s: code = %v, want %s", tt.name, body["code"], tt.ecode)
		}
	}

	// a token for one session cannot drive another
	otherID, _ := a.newSession(t, playerID)
	code, _ := a.do(t, "POST", "/api/v1/sessions/"+otherID+"/drop", token, map[string]interface{}{"bet_amount": 1})
	if code != http.StatusForbidden {
		t.Errorf("foreign session = %d", code)
	}
}

func TestMaxConcurrentBallsReturns429(t *testing.T) {
	a := newTestAPI(t, game.ManagerOptions{TickRate: 60, MaxConcurrentBalls: 1})
	playerID := a.newPlayer(t)
	sessionID, token := a.newSession(t, playerID)
	base := "/api/v1/sessions/" + sessionID

	if code, body := a.do(t, "POST", base+"/drop", token, map[string]interface{}{"bet_amount": 1}); code != http.StatusAccepted {
		t.Fatalf("first drop = %d %v", code, body)
	}
	code, body := a.do(t, "POST", base+"/drop", token, map[string]interface{}{"bet_amount": 1})
	if code != http.StatusTooManyRequests || body["code"] != "MaxConcurrentBallsExceeded" {
		t.Errorf("second drop = %d %v", code, body)
	}

	code, body = a.do(t, "POST", base+"/finish", token, nil)
	if code != http.StatusOK || body["closed"] != false {
		t.Errorf("finish with ball in flight = %d %v", code, body)
	}
	code, body = a.do(t, "POST", base+"/drop", token, map[string]interface{}{"bet_amount": 1})
	if code != http.StatusConflict || body["code"] != "SessionFinished" {
		t.Errorf("drop after finish = %d %v", code, body)
	}
}

func TestSessionRequiresKnownPlayer(t *testing.T) {
	a := newTestAPI(t, game.ManagerOptions{TickRate: 1000})

	code, body := a.do(t, "POST", "/api/v1/sessions", "", map[string]interface{}{"player_id": 42})
	if code != http.StatusNotFound || body["code"] != "UnknownPlayer" {
		t.Errorf("unknown player = %d %v", code, body)
	}
	playerID := a.newPlayer(t)
	code, body = a.do(t, "POST", "/api/v1/sessions", "", map[string]interface{}{"player_id": playerID, "board": "nope"})
	if code != http.StatusBadRequest || body["code"] != "UnknownBoard" {
		t.Errorf("unknown board = %d %v", code, body)
	}
	if code, _ := a.do(t, "GET", "/api/v1/player/abc/balance", "", nil); code != http.StatusBadRequest {
		t.Errorf("bad player id = %d", code)
	}
}

func TestAdminRoutesNeedDatabase(t *testing.T) {
	a := newTestAPI(t, game.ManagerOptions{TickRate: 1000})
	if code, _ := a.do(t, "GET", "/api/v1/admin/config", "", nil); code != http.StatusNotFound {
		t.Errorf("admin without db = %d", code)
	}
}
