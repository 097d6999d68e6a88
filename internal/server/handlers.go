package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonathan/rubric-grader/internal/archive"
	"github.com/jonathan/rubric-grader/internal/grading"
	"github.com/jonathan/rubric-grader/internal/report"
	"github.com/jonathan/rubric-grader/internal/storage"
)

// gradeResponse is the JSON body returned for a completed batch.
type gradeResponse struct {
	Success       bool   `json:"success"`
	SessionID     string `json:"session_id"`
	GradedCount   int    `json:"graded_count"`
	ErrorCount    int    `json:"error_count"`
	CSVReportURL  string `json:"csv_report_url"`
	TextReportURL string `json:"text_report_url"`
}

// handleGrade accepts a multipart form with a rubric field and a submissions
// file (single PDF or zip of PDFs), runs the batch, and writes both report
// artifacts into a fresh session directory. Input gates reject bad requests
// before any scoring call is made.
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	s.store.Sweep()

	if s.engine == nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to initialize AI client")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	rubric := strings.TrimSpace(r.FormValue("rubric"))
	if rubric == "" {
		s.errorResponse(w, http.StatusBadRequest, "Rubric text is required")
		return
	}
	if err := s.validate.Var(rubric, s.rubricRule); err != nil {
		if len(rubric) < s.cfg.MinRubricLen {
			s.errorResponse(w, http.StatusBadRequest, "Rubric is too short. Please provide a detailed rubric.")
		} else {
			s.errorResponse(w, http.StatusBadRequest,
				fmt.Sprintf("Rubric is too long (max %d characters).", s.cfg.MaxRubricLen))
		}
		return
	}

	file, header, err := r.FormFile("submissions")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "No submissions file uploaded")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.errorResponse(w, http.StatusBadRequest, "No file selected")
		return
	}
	if !archive.AllowedUpload(header.Filename) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid file type. Please upload PDF or ZIP files only.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	limits := archive.Limits{MaxFileBytes: s.cfg.MaxFileBytes, MaxEntries: s.cfg.MaxZipEntries}
	subs, err := archive.FromUpload(header.Filename, data, limits, s.logger)
	if err != nil {
		var inputErr *grading.InputError
		if errors.As(err, &inputErr) {
			s.errorResponse(w, http.StatusBadRequest, inputErr.Message)
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	if len(subs) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "No PDF files found in the uploaded content")
		return
	}

	batch := s.engine.Run(r.Context(), subs, rubric)

	sessionID, dir, err := s.store.NewSession()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create session directory")
		s.errorResponse(w, http.StatusInternalServerError, "An internal error occurred. Please try again.")
		return
	}
	if _, _, err := report.WriteReports(dir, batch); err != nil {
		s.logger.Error().Err(err).Msg("failed to write reports")
		s.errorResponse(w, http.StatusInternalServerError, "An internal error occurred. Please try again.")
		return
	}

	graded, failed := grading.CountResults(batch)
	s.jsonResponse(w, http.StatusOK, gradeResponse{
		Success:       true,
		SessionID:     sessionID,
		GradedCount:   graded,
		ErrorCount:    failed,
		CSVReportURL:  fmt.Sprintf("/api/download/%s/csv", sessionID),
		TextReportURL: fmt.Sprintf("/api/download/%s/txt", sessionID),
	})
}

// handleDownload serves a generated report artifact.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if !storage.ValidSessionID(sessionID) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var name string
	switch r.PathValue("file_type") {
	case "csv":
		name = report.CSVName
	case "txt":
		name = report.TextName
	default:
		s.errorResponse(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	path, err := s.store.ArtifactPath(sessionID, name)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("File not found: %v", err))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}
