package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"classroom/internal/api/v1/dto"
	"classroom/internal/repository"
	"classroom/internal/service"

	"github.com/rs/zerolog"
)

const rlsViolation = "Row Level Security policy violation."

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeStoreError maps a store error onto the JSON error body. A permission
// failure becomes 403 with the corrective SQL; a missing course 404; other
// upstream statuses are passed through.
func writeStoreError(w http.ResponseWriter, logger zerolog.Logger, err error, action string) {
	if errors.Is(err, service.ErrTitleRequired) {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if pd, ok := repository.AsPermissionDenied(err); ok {
		script := pd.Script
		if script == "" {
			script = repository.RLSFixSQL
		}
		msg := rlsViolation
		if action != "" {
			msg += " Cannot " + action + "."
		}
		writeJSON(w, http.StatusForbidden, dto.ErrorResponseDTO{Detail: dto.RLSErrorDTO{
			Error:   "RLS Policy Error",
			Code:    repository.PermissionDeniedCode,
			Message: msg,
			SQLFix:  script,
		}})
		return
	}
	if repository.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponseDTO{Detail: "Course not found"})
		return
	}

	status := http.StatusInternalServerError
	var rf *repository.RequestFailedError
	if errors.As(err, &rf) && rf.StatusCode >= 400 {
		status = rf.StatusCode
	}
	logger.Error().Err(err).Int("status", status).Msg("Store request failed")
	writeJSON(w, status, dto.ErrorResponseDTO{Detail: err.Error()})
}
