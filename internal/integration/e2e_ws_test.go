package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	httpserver "streampay/internal/http"
	"streampay/internal/ledger"
	"streampay/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	os.Setenv("JWT_SECRET", "test-secret")
	// all tests share one loopback IP, keep the limiter out of the way
	os.Setenv("API_RATE_LIMIT", "100000")
	os.Setenv("AUTH_RATE_LIMIT", "100000")
	service.InitJWT()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	httpserver.RegisterRoutes(r, ledger.NewMemoryStore(), "test")
	return httptest.NewServer(r)
}

func authToken(t *testing.T, srv *httptest.Server, userID string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"user_id": userID})
	resp, err := http.Post(srv.URL+"/api/v1/auth", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("auth status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}
	return out.Token
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestE2E_TipBroadcast(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	hostToken := authToken(t, srv, "host-1")
	viewerToken := authToken(t, srv, "viewer-1")

	// host provisions a room, viewer funds a wallet
	resp := doJSON(t, srv, "POST", "/api/v1/rooms", hostToken, map[string]any{"room_id": "room-1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create room status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, srv, "POST", "/api/v1/me/deposit", viewerToken, map[string]any{"amount": 1000})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deposit status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// subscribe to the room feed
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + viewerToken + "&room=room-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read handshake: %v", err)
	}
	var ready struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &ready); err != nil || ready.Type != "ready" {
		t.Fatalf("expected ready handshake, got %s", msg)
	}

	resp = doJSON(t, srv, "POST", "/api/v1/rooms/room-1/tip", viewerToken, map[string]any{
		"amount":  50,
		"message": "nice stream",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tip status %d", resp.StatusCode)
	}
	resp.Body.Close()

	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read tip event: %v", err)
	}
	var ev service.PaymentEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != "tip" || ev.RoomID != "room-1" || ev.UserID != "viewer-1" || ev.Amount != 50 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestE2E_SettlementOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	hostToken := authToken(t, srv, "host-2")
	viewerToken := authToken(t, srv, "viewer-2")

	resp := doJSON(t, srv, "POST", "/api/v1/rooms", hostToken, map[string]any{"room_id": "room-2"})
	resp.Body.Close()
	resp = doJSON(t, srv, "POST", "/api/v1/me/deposit", viewerToken, map[string]any{"amount": 500})
	resp.Body.Close()

	for i := 0; i < 3; i++ {
		resp = doJSON(t, srv, "POST", "/api/v1/rooms/room-2/tip", viewerToken, map[string]any{"amount": 10})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("tip %d status %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp = doJSON(t, srv, "POST", "/api/v1/settle", viewerToken, map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("settle status %d", resp.StatusCode)
	}
	var receipt struct {
		TransactionCount int    `json:"transaction_count"`
		TotalAmount      string `json:"total_amount"`
		SettlementHash   string `json:"settlement_hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	resp.Body.Close()

	if receipt.TransactionCount != 3 {
		t.Fatalf("transaction_count = %d, want 3", receipt.TransactionCount)
	}
	if receipt.TotalAmount != "30" {
		t.Fatalf("total_amount = %s, want 30", receipt.TotalAmount)
	}
	if len(receipt.SettlementHash) != 64 {
		t.Fatalf("settlement_hash %q is not a sha256 hex digest", receipt.SettlementHash)
	}

	// queue is cleared, room totals keep the revenue
	resp = doJSON(t, srv, "GET", "/api/v1/users/viewer-2/pending", "", nil)
	var pending struct {
		PendingTransactions []json.RawMessage `json:"pending_transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	resp.Body.Close()
	if len(pending.PendingTransactions) != 0 {
		t.Fatalf("pending queue not cleared: %d entries", len(pending.PendingTransactions))
	}

	resp = doJSON(t, srv, "GET", "/api/v1/rooms/room-2", "", nil)
	var room struct {
		TotalTips string `json:"total_tips"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	resp.Body.Close()
	if room.TotalTips != "30" {
		t.Fatalf("room total_tips = %s, want 30", room.TotalTips)
	}
}

func TestE2E_ErrorCodes(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	viewerToken := authToken(t, srv, "viewer-3")

	cases := []struct {
		name       string
		setup      func()
		method     string
		path       string
		payload    any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "tip to missing room",
			method:     "POST",
			path:       "/api/v1/rooms/no-such-room/tip",
			payload:    map[string]any{"amount": 10},
			wantStatus: http.StatusNotFound,
			wantCode:   "room_not_found",
		},
		{
			name:       "zero tip",
			method:     "POST",
			path:       "/api/v1/rooms/no-such-room/tip",
			payload:    map[string]any{"amount": 0},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_amount",
		},
		{
			name:       "unauthenticated",
			method:     "GET",
			path:       "/api/v1/me",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token := viewerToken
			if tc.wantStatus == http.StatusUnauthorized {
				token = ""
			}
			resp := doJSON(t, srv, tc.method, tc.path, token, tc.payload)
			defer resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if tc.wantCode != "" {
				var out struct {
					Code string `json:"code"`
				}
				if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if out.Code != tc.wantCode {
					t.Fatalf("code = %q, want %q", out.Code, tc.wantCode)
				}
			}
		})
	}
}

func TestE2E_InsufficientBalanceIs402(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	hostToken := authToken(t, srv, "host-4")
	viewerToken := authToken(t, srv, "viewer-4")

	resp := doJSON(t, srv, "POST", "/api/v1/rooms", hostToken, map[string]any{"room_id": "room-4"})
	resp.Body.Close()
	resp = doJSON(t, srv, "POST", "/api/v1/me/deposit", viewerToken, map[string]any{"amount": 5})
	resp.Body.Close()

	resp = doJSON(t, srv, "POST", fmt.Sprintf("/api/v1/rooms/%s/tip", "room-4"), viewerToken, map[string]any{"amount": 10})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", resp.StatusCode)
	}
}
