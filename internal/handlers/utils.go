package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akolanti/DocAssist/internal/adapter"
	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/jobModel"
	"github.com/akolanti/DocAssist/internal/rag"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already out, only log
		logRH.Error("Error encoding response", "err", err)
	}
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.FromContext(ctx).Warn("context error", "err", ctx.Err())
		return false
	}
	return true
}

func traceIdFrom(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func userIdFrom(ctx context.Context) string {
	userId, _ := ctx.Value(config.USER_ID_KEY).(string)
	return userId
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// writeServiceError maps rag errors onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, id string, err error) {
	var retrievalErr *rag.RetrievalError
	switch {
	case errors.Is(err, rag.ErrValidation):
		WriteErrorResponse(w, http.StatusBadRequest, id, err.Error())
	case errors.As(err, &retrievalErr) && retrievalErr.Unreachable():
		WriteErrorResponse(w, http.StatusServiceUnavailable, id, "Search service is unavailable. Please try again later.")
	case errors.As(err, &retrievalErr):
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Search failed")
	default:
		logRH.FromContext(r.Context()).Error("Request failed", "path", r.URL.Path, "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Internal server error")
	}
}

func getTargetDirectory() (string, string) {
	root, err := os.Getwd()
	if err != nil {
		return "", "Storage Error"
	}

	targetDir := filepath.Join(root, "temporary_data")
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", "Storage Error"
	}
	return targetDir, ""
}
