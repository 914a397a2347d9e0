package server

import (
	"net/http"
	"strings"

	"savvynote/pkg/domain"
	"savvynote/pkg/store"
)

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request, user domain.User) {
	created, err := s.app.Follow(user.ID, r.PathValue("user_id"))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if created {
		writeMessage(w, http.StatusCreated, "Followed")
		return
	}
	writeMessage(w, http.StatusOK, "Already following")
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request, user domain.User) {
	if err := s.app.Unfollow(user.ID, r.PathValue("user_id")); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request, user domain.User) {
	created, err := s.app.Block(user.ID, r.PathValue("user_id"))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if created {
		writeMessage(w, http.StatusCreated, "User blocked.")
		return
	}
	writeMessage(w, http.StatusOK, "Already blocked.")
}

func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request, user domain.User) {
	if err := s.app.Unblock(user.ID, r.PathValue("user_id")); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFollowerCounts(w http.ResponseWriter, r *http.Request) {
	followers, following, err := s.app.FollowCounts(r.PathValue("user_id"))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"followers": followers,
		"following": following,
	})
}

func (s *Server) handleFollowList(w http.ResponseWriter, r *http.Request) {
	requesterID := ""
	if requester, ok := s.authorize(r); ok {
		requesterID = requester.ID
	}
	listType := r.URL.Query().Get("type")
	users, total, err := s.app.FollowList(r.PathValue("user_id"), requesterID, listType, pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, users)
}

func (s *Server) handleBlockList(w http.ResponseWriter, r *http.Request, user domain.User) {
	userID := r.PathValue("user_id")
	if userID != user.ID {
		writeError(w, http.StatusForbidden, "You can only view your own block list.")
		return
	}
	users, total, err := s.app.BlockList(userID, pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, users)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	viewerID := ""
	if viewer, ok := s.authorize(r); ok {
		viewerID = viewer.ID
	}
	q := r.URL.Query()
	filter := store.MusicianFilter{Search: strings.TrimSpace(q.Get("search"))}
	if raw := q.Get("instruments"); raw != "" {
		filter.Instruments = splitCSV(raw)
	}
	if raw := q.Get("genres"); raw != "" {
		filter.Genres = splitCSV(raw)
	}
	users, total, err := s.app.Discover(viewerID, filter, pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, users)
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
