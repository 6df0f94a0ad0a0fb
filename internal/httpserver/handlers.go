package httpserver

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/feedrank/feedrank/internal/domain"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeBody(w, r.Body, &req) {
		return
	}

	user := &domain.User{ID: req.ID, Name: req.Name}
	if err := s.service.CreateUser(r.Context(), user); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "User created"})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if !decodeBody(w, r.Body, &req) {
		return
	}

	post := &domain.Post{ID: req.ID, UserID: req.UserID, Content: req.Content}
	if err := s.service.CreatePost(r.Context(), post); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Post created"})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if !decodeBody(w, r.Body, &req) {
		return
	}

	comment := &domain.Comment{
		ID:      req.ID,
		PostID:  req.PostID,
		UserID:  req.UserID,
		Content: req.Content,
	}
	if err := s.service.CreateComment(r.Context(), comment); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Comment created"})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	post, comments, err := s.service.GetPostWithComments(r.Context(), postID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPostWithCommentsResponse(post, comments))
}

func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID := q.Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", "")
		return
	}

	batchSize := 0
	if raw := q.Get("batch_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "batch_size must be a positive integer", "")
			return
		}
		batchSize = parsed
	}

	startAfterID := q.Get("start_after_id")

	page, err := s.service.GetFeed(r.Context(), userID, startAfterID, batchSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeedResponse(page))
}

// respondError maps the domain error taxonomy onto HTTP statuses and renders
// a structured {error, details} body. Store and integrity failures surface
// their underlying message in details; nothing leaks as a stack trace.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case domain.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), "")
	case domain.IsDataIntegrity(err):
		s.logger.Error("data integrity failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Data integrity error", err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

// decodeBody decodes a JSON request body into dst, rejecting malformed or
// ill-typed payloads with a 400. Returns false when a response was written.
func decodeBody(w http.ResponseWriter, body io.Reader, dst any) bool {
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errMsg, details string) {
	writeJSON(w, status, errorResponse{Error: errMsg, Details: details})
}
