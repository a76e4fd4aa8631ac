package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcdev12/typerace/go/internal/models"
	"github.com/mcdev12/typerace/go/internal/roomcode"
	"github.com/mcdev12/typerace/go/internal/store"
)

const referenceText = "The quick brown fox jumps over the lazy dog."

func TestHandleCreateRoom(t *testing.T) {
	svc := NewService(store.NewMemory(), DefaultConfig(referenceText))

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	svc.HandleCreateRoom(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !roomcode.IsValid(body["room_id"]) {
		t.Errorf("minted room_id %q is not a valid room code", body["room_id"])
	}
}

func TestHandleCreateRoomRejectsGet(t *testing.T) {
	svc := NewService(store.NewMemory(), DefaultConfig(referenceText))

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	svc.HandleCreateRoom(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestRaceConnectionJoinAndLeave(t *testing.T) {
	svc := NewService(store.NewMemory(), DefaultConfig(referenceText))
	server := httptest.NewServer(http.HandlerFunc(svc.HandleRaceConnection))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	join := ClientMessage{Type: ClientMessageJoin, RoomID: "abc12"}
	if err := conn.WriteJSON(join); err != nil {
		t.Fatalf("write join: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read view frame: %v", err)
	}
	if msg.Type != ServerMessageView || msg.View == nil {
		t.Fatalf("first frame = %+v, want a view frame", msg)
	}
	if msg.View.Phase != models.PhaseCountdown {
		t.Errorf("phase = %v, want %v", msg.View.Phase, models.PhaseCountdown)
	}
	if msg.View.PlayerID == "" {
		t.Error("view has no player ID after join")
	}

	if err := conn.WriteJSON(ClientMessage{Type: ClientMessageLeave}); err != nil {
		t.Fatalf("write leave: %v", err)
	}
}

func TestRaceConnectionRejectsEmptyRoomID(t *testing.T) {
	svc := NewService(store.NewMemory(), DefaultConfig(referenceText))
	server := httptest.NewServer(http.HandlerFunc(svc.HandleRaceConnection))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(ClientMessage{Type: ClientMessageJoin}); err != nil {
		t.Fatalf("write join: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if msg.Type != ServerMessageError {
		t.Fatalf("frame type = %v, want %v", msg.Type, ServerMessageError)
	}
	if msg.Error == "" {
		t.Error("error frame has no message")
	}
}
