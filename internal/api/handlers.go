package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/a3tai/ahc-engine/internal/certificate"
	"github.com/a3tai/ahc-engine/internal/errors"
	"github.com/a3tai/ahc-engine/internal/generate"
)

const (
	defaultTemplateLimit = 100
	maxTemplateLimit     = 1000
)

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.ServerInfo()
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	limit := defaultTemplateLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTemplateLimit {
			jsonError(w, fmt.Sprintf("limit must be between 1 and %d", maxTemplateLimit), http.StatusBadRequest)
			return
		}
		limit = n
	}

	files, truncated, err := s.service.ListTemplates(limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": files,
		"truncated": truncated,
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req certificate.DetectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.service.DetectProfile(req)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	var req certificate.MapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.service.MapFields(req)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCrossouts(w http.ResponseWriter, r *http.Request) {
	var req certificate.CrossoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.service.ComputeCrossouts(req)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// generateFailure is the body of a failed generation. Report is the partial
// report when the pipeline got far enough to build one.
type generateFailure struct {
	Error  string           `json:"error"`
	Type   errors.ErrorType `json:"type"`
	Report *generate.Report `json:"report,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req certificate.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.Generate(r.Context(), req)
	if err != nil {
		body := generateFailure{Error: err.Error(), Type: errors.TypeOf(err)}
		if result != nil {
			body.Report = &result.Report
		}
		writeJSON(w, statusFor(err), body)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// decodeBody reads a JSON request body into v. It writes the error response
// and returns false when the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request body exceeds max size (%d bytes)", maxBodyBytes),
				http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps an engine error to an HTTP status.
func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrorTypeSecurityRestriction:
		return http.StatusForbidden
	case errors.ErrorTypeMissingCanonicalKeys, errors.ErrorTypeUnresolvedCategories,
		errors.ErrorTypeGeometryFailure, errors.ErrorTypeDocument:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func serviceError(w http.ResponseWriter, err error) {
	jsonError(w, err.Error(), statusFor(err))
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
