package observer

import (
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"emberhall/internal/protocol"
)

type fakeFacade struct {
	applied []string
}

func (f *fakeFacade) Welcome() protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Game:            "test",
		Day:             4,
	}
}

func (f *fakeFacade) Apply(act protocol.ActionMsg) protocol.ResultMsg {
	f.applied = append(f.applied, act.Op)
	return protocol.ResultMsg{Type: protocol.TypeResult, Op: act.Op, OK: true}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestHandshakeAndBroadcast(t *testing.T) {
	facade := &fakeFacade{}
	srv := NewServer(facade, log.New(os.Stdout, "[test] ", 0))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts.URL)
	defer conn.Close()

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("hello: %v", err)
	}

	var welcome protocol.WelcomeMsg
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if welcome.Type != protocol.TypeWelcome || welcome.Day != 4 {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}

	// Subscription registers asynchronously after the handshake reply.
	deadline := time.Now().Add(2 * time.Second)
	for srv.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if srv.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", srv.Subscribers())
	}

	srv.Broadcast(protocol.StateMsg{Type: protocol.TypeState, Day: 4, Minute: 481, Gold: 120})

	var state protocol.StateMsg
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("state frame: %v", err)
	}
	if state.Day != 4 || state.Minute != 481 {
		t.Fatalf("unexpected state frame: %+v", state)
	}
}

func TestActionFrameGetsAResult(t *testing.T) {
	facade := &fakeFacade{}
	srv := NewServer(facade, log.New(os.Stdout, "[test] ", 0))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts.URL)
	defer conn.Close()

	if err := conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version}); err != nil {
		t.Fatalf("hello: %v", err)
	}
	var welcome protocol.WelcomeMsg
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}

	params, _ := json.Marshal(map[string]any{"item": "ale", "price": 5})
	act := protocol.ActionMsg{Type: protocol.TypeAction, Op: "setPrice", Params: params}
	if err := conn.WriteJSON(act); err != nil {
		t.Fatalf("action: %v", err)
	}

	var res protocol.ResultMsg
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if !res.OK || res.Op != "setPrice" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRejectsWrongProtocolVersion(t *testing.T) {
	facade := &fakeFacade{}
	srv := NewServer(facade, log.New(os.Stdout, "[test] ", 0))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts.URL)
	defer conn.Close()

	if err := conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.0"}); err != nil {
		t.Fatalf("hello: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close on version mismatch")
	}
}
