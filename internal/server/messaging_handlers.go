package server

import (
	"net/http"

	"savvynote/pkg/domain"
)

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request, user domain.User) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files, closeAll, err := openUploads(r.MultipartForm.File["files"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable upload")
		return
	}
	defer closeAll()

	receiverID := r.FormValue("receiver_id")
	text := r.FormValue("text")
	message, err := s.app.SendMessage(r.Context(), user.ID, receiverID, text, files)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request, user domain.User) {
	otherID := r.URL.Query().Get("other_id")
	if otherID == "" {
		writeError(w, http.StatusBadRequest, "other_id is required")
		return
	}
	messages, total, err := s.app.Conversation(r.Context(), user.ID, otherID, pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, messages)
}

func (s *Server) handleActiveConversations(w http.ResponseWriter, r *http.Request, user domain.User) {
	search := r.URL.Query().Get("search")
	previews, total, err := s.app.ActiveConversations(user.ID, search, pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, previews)
}

func (s *Server) handlePotentialConversations(w http.ResponseWriter, r *http.Request, user domain.User) {
	users, total, err := s.app.PotentialConversations(user.ID, pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, users)
}
