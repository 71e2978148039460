package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sheetboard/sheetboard/internal/core"
)

// dataResponse is the payload of GET /api/data: the current snapshot plus the
// version it was published as.
type dataResponse struct {
	Sheets      map[string]map[string][]core.TaskEntry `json:"all_sheets_data"`
	SheetNames  []string                               `json:"sheet_names"`
	Version     int64                                  `json:"version"`
	LastUpdated *time.Time                             `json:"last_updated"`
}

// handleData returns the current cached snapshot.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	snap, version := s.cache.State()

	resp := dataResponse{
		Sheets:     map[string]map[string][]core.TaskEntry{},
		SheetNames: []string{},
		Version:    version,
	}
	if snap != nil {
		resp.Sheets = snap.Sheets
		resp.SheetNames = snap.SheetNames
		updated := snap.LastUpdated
		resp.LastUpdated = &updated
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleHealth reports liveness plus the cache position.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, version := s.cache.State()

	resp := map[string]any{
		"status":    "ok",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if snap != nil {
		resp["last_updated"] = snap.LastUpdated
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleSaveTask applies a single-row edit to a workbook.
func (s *Server) handleSaveTask(w http.ResponseWriter, r *http.Request) {
	var req core.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: invalid request body: %v", core.ErrInvalidInput, err))
		return
	}

	if err := s.saver.Save(r.Context(), req); err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Task updated successfully",
	})
}

// fileRequest is the body of the open-file and close-file endpoints.
type fileRequest struct {
	FilePath string `json:"file_path"`
}

// handleOpenFile opens a configured workbook in the system's default
// application.
func (s *Server) handleOpenFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: invalid request body: %v", core.ErrInvalidInput, err))
		return
	}

	path, err := s.launcher.OpenFile(req.FilePath)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "opened",
		"file_path": path,
	})
}

// handleCloseFile stops the tracked launcher process for a workbook.
func (s *Server) handleCloseFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: invalid request body: %v", core.ErrInvalidInput, err))
		return
	}

	tracked, err := s.launcher.CloseFile(req.FilePath)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := "closed"
	if !tracked {
		status = "not_tracked"
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

// handleFileStatus reports which configured workbooks this service launched.
func (s *Server) handleFileStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"open_files": s.launcher.Status(),
	})
}
