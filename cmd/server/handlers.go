package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/songtag/pkg/logger"
	"github.com/himanishpuri/songtag/pkg/models"
	"github.com/himanishpuri/songtag/pkg/songtag"
	"github.com/himanishpuri/songtag/pkg/utils"
)

const (
	maxUploadBytes   = 50 << 20
	tagTimeout       = 2 * time.Minute
	recognizeTimeout = 30 * time.Second
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service    songtag.Service
	recognizer songtag.Recognizer
	config     *ServerConfig
	log        songtag.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	History        bool
	AllowedOrigins []string
}

// NewServer creates a new server instance. recognizer answers signatures
// computed by browsers.
func NewServer(service songtag.Service, recognizer songtag.Recognizer, config *ServerConfig) *Server {
	return &Server{
		service:    service,
		recognizer: recognizer,
		config:     config,
		log:        logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "songtag API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":    "GET /health",
			"metrics":   "GET /api/health/metrics",
			"tag":       "POST /api/tag",
			"recognize": "POST /api/recognize",
			"history":   "GET /api/history",
			"getTag":    "GET /api/history/{id}",
			"deleteTag": "DELETE /api/history/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	resp := MetricsResponse{Status: "healthy", History: s.config.History}
	if s.config.History {
		resp.DatabasePath = s.config.DBPath
		tags, err := s.service.History(models.HistoryQuery{})
		if err != nil {
			s.log.Errorf("Failed to count history: %v", err)
			s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
			return
		}
		resp.TagCount = len(tags)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleTag handles POST /api/tag (multipart file upload)
func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), tagTimeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.log.Errorf("Failed to get audio file: %v", err)
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	tempFile, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.log.Errorf("Failed to save upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	defer utils.DeleteFile(tempFile)

	s.log.Infof("Tagging uploaded file: %s", header.Filename)
	res, err := s.service.TagFile(ctx, tempFile)
	if err != nil {
		s.log.Errorf("Failed to tag file: %v", err)
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to read audio: %v", err))
		return
	}

	status := http.StatusOK
	if res.Outcome == songtag.TransportError {
		status = http.StatusBadGateway
	}
	s.respondJSON(w, status, newTagResponse(res))
}

// saveUpload copies an uploaded file into the temp directory, keeping its
// extension so the decoder can be chosen.
func (s *Server) saveUpload(src io.Reader, name string) (string, error) {
	if err := utils.MakeDir(s.config.TempDir); err != nil {
		return "", err
	}
	path := filepath.Join(s.config.TempDir, fmt.Sprintf("upload_%s%s", utils.ShortID(), filepath.Ext(name)))

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		utils.DeleteFile(path)
		return "", err
	}
	return path, out.Close()
}

// handleRecognize handles POST /api/recognize
func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), recognizeTimeout)
	defer cancel()

	var req RecognizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	raw, dec, err := req.Validate()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TagID == "" {
		req.TagID = utils.GenerateUUID()
	}

	s.log.Infof("Recognizing browser signature: %d ms, %d peaks", req.SampleMs, dec.PeakCount())

	res, err := s.recognizer.SendRequest(ctx, req.TagID, req.SampleMs, raw)
	if err != nil {
		s.log.Errorf("Recognition failed: %v", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := RecognizeResponse{TagID: req.TagID, RetryMs: res.RetryMs, GiveUp: res.GiveUp()}
	if res.Success() {
		resp.Match = res
		resp.RetryMs = 0
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleHistory handles GET /api/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Use GET")
		return
	}

	q := models.HistoryQuery{Artist: r.URL.Query().Get("artist")}
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	q.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	tags, err := s.service.History(q)
	if errors.Is(err, songtag.ErrHistoryDisabled) {
		s.respondError(w, http.StatusNotFound, "History is disabled")
		return
	}
	if err != nil {
		s.log.Errorf("Failed to list history: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	dtos := make([]TagDTO, len(tags))
	for i, t := range tags {
		dtos[i] = newTagDTO(t)
	}
	s.respondJSON(w, http.StatusOK, ListHistoryResponse{Tags: dtos, Count: len(dtos)})
}

// handleHistoryEntry handles GET and DELETE /api/history/{id}
func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/history/"), "/")
	if id == "" {
		s.handleHistory(w, r)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		s.respondError(w, http.StatusMethodNotAllowed, "Use GET or DELETE")
		return
	}

	tag, err := s.service.GetTag(id)
	switch {
	case errors.Is(err, songtag.ErrHistoryDisabled):
		s.respondError(w, http.StatusNotFound, "History is disabled")
		return
	case errors.Is(err, songtag.ErrTagNotFound):
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Tag %s not found", id))
		return
	case err != nil:
		s.log.Errorf("Failed to get tag %s: %v", id, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve tag")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.respondJSON(w, http.StatusOK, newTagDTO(tag))
	case http.MethodDelete:
		if err := s.service.DeleteTag(id); err != nil {
			s.log.Errorf("Failed to delete tag %s: %v", id, err)
			s.respondError(w, http.StatusInternalServerError, "Failed to delete tag")
			return
		}
		s.log.Infof("Deleted tag: %s by %s (ID: %s)", tag.Title, tag.Artist, id)
		s.respondJSON(w, http.StatusOK, DeleteTagResponse{Message: "Tag deleted successfully", ID: id})
	}
}
