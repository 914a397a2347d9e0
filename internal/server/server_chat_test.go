package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"savvynote/internal/chat"
	"savvynote/pkg/store"
)

func dialChat(t *testing.T, env *testEnv, room, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/chat/" + room + "/?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", url, err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestChatSocketDeliversAndPersistsMessages(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUpMusician(t, "alice")
	bob := env.signUpMusician(t, "bob")
	aliceToken := env.loginToken(t, "alice")
	bobToken := env.loginToken(t, "bob")
	room := chat.RoomID(alice.ID, bob.ID)

	aliceConn := dialChat(t, env, room, aliceToken)
	bobConn := dialChat(t, env, room, bobToken)
	// Joins are registered by the server handler after the upgrade returns.
	time.Sleep(100 * time.Millisecond)

	msg := map[string]string{"type": chat.EventChatMessage, "message": "soundcheck at 6"}
	if err := aliceConn.WriteJSON(msg); err != nil {
		t.Fatalf("write message: %v", err)
	}

	_ = bobConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := bobConn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var ev chat.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("unmarshal broadcast %q: %v", raw, err)
	}
	if ev.Type != chat.EventChatMessage || ev.Text != "soundcheck at 6" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.SenderID != alice.ID || ev.ReceiverID != bob.ID {
		t.Fatalf("unexpected routing: %+v", ev)
	}

	// The message is persisted like any other direct message.
	deadline := time.Now().Add(2 * time.Second)
	for {
		messages, _, err := env.app.Conversation(context.Background(), bob.ID, alice.ID, store.Page{})
		if err != nil {
			t.Fatalf("conversation: %v", err)
		}
		if len(messages) == 1 && messages[0].Text == "soundcheck at 6" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("message not persisted, got %d messages", len(messages))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestChatSocketRejectsOutsiders(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUpMusician(t, "alice")
	bob := env.signUpMusician(t, "bob")
	env.signUpMusician(t, "eve")
	eveToken := env.loginToken(t, "eve")
	room := chat.RoomID(alice.ID, bob.ID)

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/chat/" + room + "/?token=" + eveToken
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("outsider dial should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 on upgrade, got %+v", resp)
	}

	// Unauthenticated dial is rejected outright.
	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(env.srv.URL, "http")+"/ws/chat/"+room+"/", nil)
	if err == nil {
		t.Fatal("anonymous dial should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on upgrade, got %+v", resp)
	}
}
