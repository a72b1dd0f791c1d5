package devserver

import (
	"net/http"
)

func (s *Server) liveProgram(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Program())
}

func (s *Server) liveComments(w http.ResponseWriter, r *http.Request) {
	programID := r.URL.Query().Get("programId")
	if programID == "" {
		writeError(w, badRequest("programId is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.store.Comments(programID))
}

func (s *Server) postComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProgramID string `json:"programId"`
		UserID    string `json:"userId"`
		Content   string `json:"content"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := requireOwner(r, req.UserID); err != nil {
		writeError(w, err)
		return
	}

	c, err := s.store.AddComment(req.ProgramID, req.UserID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) participate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProgramID string `json:"programId"`
		UserID    string `json:"userId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := requireOwner(r, req.UserID); err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.Participate(req.ProgramID, req.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Participation recorded")
}
