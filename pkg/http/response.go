package http

import (
	"encoding/json"
	"net/http"

	apperrors "portbuoy/pkg/errors"
)

// Response envelopes follow the public wire shape: every body carries a
// success flag, errors carry a message and optional details.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type ListResponse struct {
	Success    bool  `json:"success"`
	Count      int   `json:"count"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
	Data       any   `json:"data"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps an error to its HTTP status via the AppError taxonomy.
// Non-AppError values are masked as internal errors.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)

	msg := appErr.Message
	if appErr.Code == apperrors.CodeInternal {
		msg = "Internal server error"
	}

	return WriteJSON(w, appErr.StatusCode(), ErrorResponse{
		Success: false,
		Error:   msg,
		Details: appErr.Details,
	})
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func WriteList(w http.ResponseWriter, data any, count int, totalCount int64, limit int, offset int64) error {
	return WriteJSON(w, http.StatusOK, ListResponse{
		Success:    true,
		Count:      count,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
		Data:       data,
	})
}
