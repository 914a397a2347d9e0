package server

import (
	"mime/multipart"
	"net/http"

	"savvynote/internal/app"
	"savvynote/pkg/domain"
)

const maxMultipartMemory = 32 << 20

// openUploads converts multipart file headers into upload descriptors. The
// returned closer must run after the app call finishes streaming.
func openUploads(headers []*multipart.FileHeader) ([]app.UploadFile, func(), error) {
	files := make([]app.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		files = append(files, app.UploadFile{
			Reader:      f,
			Size:        h.Size,
			ContentType: h.Header.Get("Content-Type"),
		})
	}
	return files, closeAll, nil
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request, user domain.User) {
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

	caption := r.FormValue("caption")
	tagged := r.MultipartForm.Value["tagged_users"]
	post, err := s.app.CreatePost(r.Context(), user.ID, caption, tagged, files)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Post created successfully!",
		"post_id": post.ID,
	})
}

func (s *Server) handleFetchPosts(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	posts, total, err := s.app.PostsByUsername(r.Context(), username, pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, posts)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request, user domain.User) {
	posts, total, err := s.app.Feed(r.Context(), user.ID, pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, posts)
}

func (s *Server) handleBannedPosts(w http.ResponseWriter, r *http.Request, _ domain.User) {
	posts, total, err := s.app.BannedPosts(r.Context(), pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, posts)
}

func (s *Server) handleReportedPosts(w http.ResponseWriter, r *http.Request, _ domain.User) {
	reports, total, err := s.app.ReportedPosts(pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, reports)
}

type postActionRequest struct {
	PostID string `json:"post_id"`
}

func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req postActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := s.app.LikePost(user.ID, req.PostID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if created {
		writeMessage(w, http.StatusCreated, "Liked")
		return
	}
	writeMessage(w, http.StatusOK, "Already liked")
}

func (s *Server) handleUnlikePost(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req postActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.UnlikePost(user.ID, req.PostID); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHidePost(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req postActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.HidePost(user.ID, req.PostID); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Post hidden")
}

func (s *Server) handleUnhidePost(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req postActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.UnhidePost(user.ID, req.PostID); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Post unhidden")
}

type reportPostRequest struct {
	PostID       string `json:"post_id"`
	ReportReason string `json:"report_reason"`
}

func (s *Server) handleReportPost(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req reportPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.ReportPost(user.ID, req.PostID, req.ReportReason); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Post reported")
}

type banPostRequest struct {
	PostID  string `json:"post_id"`
	AdminID string `json:"admin_id"`
}

func (s *Server) handleBanPost(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var req banPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AdminID == "" {
		writeError(w, http.StatusBadRequest, "admin_id is required")
		return
	}
	if err := s.app.BanPost(req.PostID, req.AdminID); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Post banned")
}

func (s *Server) handleUnbanPost(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var req postActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.UnbanPost(req.PostID); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Post unbanned")
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, user domain.User) {
	if err := s.app.DeletePost(r.Context(), user.ID, r.PathValue("post_id")); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createCommentRequest struct {
	PostID  string `json:"post_id"`
	Text    string `json:"text"`
	ReplyTo string `json:"reply_to"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req createCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := s.app.CreateComment(user.ID, req.PostID, req.Text, req.ReplyTo)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleFetchComments(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("post_id")
	if postID == "" {
		writeError(w, http.StatusBadRequest, "post_id is required")
		return
	}
	comments, total, err := s.app.Comments(postID, pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, comments)
}

type likeCommentRequest struct {
	CommentID string `json:"comment_id"`
}

func (s *Server) handleLikeComment(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req likeCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := s.app.LikeComment(user.ID, req.CommentID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if created {
		writeMessage(w, http.StatusCreated, "Liked")
		return
	}
	writeMessage(w, http.StatusOK, "Already liked")
}
