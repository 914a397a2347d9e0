package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"savvynote/internal/chat"
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.frontendURL == "" || strings.HasPrefix(origin, s.frontendURL)
		},
	}
}

// handleChatSocket upgrades a conversation room connection. Browsers cannot
// set Authorization headers on websocket dials, so a ?token= query parameter
// is accepted alongside the usual cookie.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = requestToken(r)
	}
	user, ok := s.app.UserFromToken(token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	room := r.PathValue("room")
	a, b, valid := strings.Cut(room, ":")
	if !valid || a == "" || b == "" || room != chat.RoomID(a, b) {
		writeError(w, http.StatusBadRequest, "invalid room")
		return
	}
	if user.ID != a && user.ID != b {
		writeError(w, http.StatusForbidden, "You are not part of this conversation.")
		return
	}
	otherID := a
	if otherID == user.ID {
		otherID = b
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := chat.NewClient(s.hub, conn, room, user.ID)
	client.Join()
	go client.WritePump()
	client.ReadPump(func(ev chat.Event) {
		s.dispatchChatEvent(room, user.ID, otherID, ev)
	})
}

// dispatchChatEvent persists chat messages before fanning them out; typing
// indicators are relayed as-is.
func (s *Server) dispatchChatEvent(room, senderID, otherID string, ev chat.Event) {
	switch ev.Type {
	case chat.EventTyping:
		s.hub.Broadcast(room, chat.Event{
			Type:       chat.EventTyping,
			SenderID:   senderID,
			ReceiverID: otherID,
		})
	case chat.EventChatMessage:
		msg, err := s.app.SendMessage(context.Background(), senderID, otherID, ev.Text, nil)
		if err != nil {
			slog.Warn("chat message rejected", "room", room, "error", err)
			return
		}
		s.hub.Broadcast(room, chat.Event{
			Type:       chat.EventChatMessage,
			SenderID:   msg.SenderID,
			ReceiverID: msg.ReceiverID,
			Text:       msg.Text,
			FileKeys:   msg.FileKeys,
			FileTypes:  msg.FileTypes,
			SentAt:     msg.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}
