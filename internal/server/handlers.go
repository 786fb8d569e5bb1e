package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/michaelbrown/polyrun/internal/execution"
	"github.com/michaelbrown/polyrun/internal/language"
)

// maxRequestBody bounds /api/execute bodies.
const maxRequestBody = 1 << 20

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Language handlers ---

func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dispatcher.Registry().All())
}

func (s *Server) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	desc, err := s.dispatcher.Registry().Describe(key)
	if err != nil {
		if errors.Is(err, language.ErrNotFound) {
			writeError(w, http.StatusNotFound, "language not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, desc)
}

// --- Execution handlers ---

// executeResponse is a dispatch result tagged with the run it came from.
type executeResponse struct {
	RunID string `json:"run_id"`
	execution.Result
}

// handleExecute dispatches one request. A failed run is still a 200: the
// failure is the payload. Only malformed bodies get a 4xx.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	if err := validateExecuteRequest(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req execution.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	runID, res := s.execute(r.Context(), req, "api")
	writeJSON(w, http.StatusOK, executeResponse{RunID: runID, Result: res})
}

// execute dispatches req under the run tracker. The run is detached from
// the caller's cancellation: a client going away does not abort it.
func (s *Server) execute(ctx context.Context, req execution.Request, origin string) (string, execution.Result) {
	id := s.runs.Start(req.Language, origin)
	defer s.runs.Finish(id)

	return id, s.dispatcher.Dispatch(context.WithoutCancel(ctx), req)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runs.List())
}
