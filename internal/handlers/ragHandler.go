package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/akolanti/DocAssist/internal/adapter"
	"github.com/akolanti/DocAssist/internal/adapter/utils"
	"github.com/akolanti/DocAssist/internal/api"
	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/chatModel"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
	usageSessionLimit  = 1000
)

var ragInstance *RagHandler

// RagHandler serves the synchronous chat, document and admin endpoints.
type RagHandler struct {
	service     rag.Service
	registry    commonModels.DocumentRegistry
	transcripts chatModel.TranscriptStore
	settings    *config.Settings
}

type RagHandlerConfig struct {
	Service     rag.Service
	Registry    commonModels.DocumentRegistry
	Transcripts chatModel.TranscriptStore
	Settings    *config.Settings
}

func InitRagHandler(cfg RagHandlerConfig) {
	ragInstance = &RagHandler{
		service:     cfg.Service,
		registry:    cfg.Registry,
		transcripts: cfg.Transcripts,
		settings:    cfg.Settings,
	}
}

// AskHandler godoc
// @Summary      Ask a question about your documents
// @Description  Answers from the caller's enabled documents. Nothing-retrievable outcomes return success=false with a reason.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest   true  "Question, session and optional topK"
// @Success      200      {object}  api.AskResponse
// @Failure      400      {object}  api.JobResponse  "Missing question or session"
// @Failure      503      {object}  api.JobResponse  "Vector index unreachable"
// @Security     BearerAuth
// @Router       /chat/ask [post]
func AskHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.AskRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the ask handler reader", "err", err)
		}
	}(r.Body)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logRH.FromContext(r.Context()).Warn("Bad ask request", "err", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.AskRequestTimeout)
	defer cancel()
	res, err := ragInstance.service.AskQuestion(ctx, adapter.ToAskRequest(userIdFrom(ctx), req))
	if err != nil {
		writeServiceError(w, r, req.SessionId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAskResponse(res))
}

// HistoryHandler godoc
// @Summary      Get a chat session transcript
// @Tags         Chat
// @Produce      json
// @Param        sessionId  query     string  true  "Session ID"
// @Success      200        {object}  api.HistoryResponse
// @Failure      400        {object}  api.JobResponse
// @Failure      404        {object}  api.JobResponse
// @Security     BearerAuth
// @Router       /chat/history [get]
func HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	sessionId := r.URL.Query().Get("sessionId")
	if sessionId == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "sessionId is required")
		return
	}
	if err := chatModel.ValidateSessionID(sessionId); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", err.Error())
		return
	}
	session, err := ragInstance.transcripts.GetSession(r.Context(), userIdFrom(r.Context()), sessionId)
	if errors.Is(err, chatModel.ErrSessionNotFound) || (err == nil && !session.IsActive()) {
		WriteErrorResponse(w, http.StatusNotFound, sessionId, "Session not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, sessionId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToHistoryResponse(session))
}

// SessionsHandler godoc
// @Summary      List the caller's active chat sessions
// @Tags         Chat
// @Produce      json
// @Success      200  {object}  api.SessionsResponse
// @Security     BearerAuth
// @Router       /chat/sessions [get]
func SessionsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	sessions, err := ragInstance.transcripts.ListSessions(r.Context(), userIdFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSessionsResponse(sessions))
}

// DeleteSessionHandler godoc
// @Summary      Delete a chat session
// @Description  Hides the session from the caller. The transcript is kept for usage reporting.
// @Tags         Chat
// @Param        sessionId  path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  api.JobResponse
// @Security     BearerAuth
// @Router       /chat/sessions/{sessionId} [delete]
func DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	sessionId := utils.GetChiURLParam(r, "sessionId")
	err := ragInstance.service.DeleteSession(r.Context(), userIdFrom(r.Context()), sessionId)
	if errors.Is(err, chatModel.ErrSessionNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, sessionId, "Session not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, sessionId, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchHandler godoc
// @Summary      Find similar past messages
// @Tags         Chat
// @Produce      json
// @Param        q          query     string  true   "Search text"
// @Param        sessionId  query     string  false  "Restrict to one session"
// @Param        limit      query     int     false  "Maximum results (default 5, max 20)"
// @Success      200        {object}  api.SearchResponse
// @Security     BearerAuth
// @Router       /chat/search [get]
func SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	query := r.URL.Query()
	limit := defaultSearchLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteErrorResponse(w, http.StatusBadRequest, "", "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}
	q := strings.TrimSpace(query.Get("q"))
	sessionId := query.Get("sessionId")

	msgs, err := ragInstance.service.SearchSimilarMessages(r.Context(), userIdFrom(r.Context()), sessionId, q, limit)
	if errors.Is(err, chatModel.ErrSessionNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, sessionId, "Session not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, sessionId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.SearchResponse{Query: q, Messages: adapter.ToMessageResponses(msgs, true)})
}

// ListDocumentsHandler godoc
// @Summary      List the caller's documents
// @Tags         Documents
// @Produce      json
// @Success      200  {object}  api.DocumentListResponse
// @Security     BearerAuth
// @Router       /documents [get]
func ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	docs, err := ragInstance.registry.ListDocuments(r.Context(), userIdFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentListResponse(docs))
}

// DeleteDocumentHandler godoc
// @Summary      Delete a document and its vectors
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DocumentResponse
// @Failure      400  {object}  api.JobResponse
// @Failure      404  {object}  api.JobResponse
// @Security     BearerAuth
// @Router       /documents/{id} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id, ok := documentIdParam(w, r)
	if !ok {
		return
	}
	doc, err := ragInstance.service.DeleteDocument(r.Context(), userIdFrom(r.Context()), id)
	if errors.Is(err, commonModels.ErrDocumentNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, id.String(), "Document not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, id.String(), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
}

// ToggleDocumentHandler godoc
// @Summary      Enable or disable a document for retrieval
// @Description  Sets isEnabled from the body, or flips it when the body is empty.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        id       path      string             true   "Document ID"
// @Param        request  body      api.ToggleRequest  false  "Desired state"
// @Success      200      {object}  api.DocumentResponse
// @Failure      404      {object}  api.JobResponse
// @Security     BearerAuth
// @Router       /documents/{id}/toggle [post]
func ToggleDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id, ok := documentIdParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	userId := userIdFrom(ctx)

	var req api.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteErrorResponse(w, http.StatusBadRequest, id.String(), "Bad Request")
		return
	}

	doc, err := ragInstance.registry.GetDocument(ctx, userId, id)
	if errors.Is(err, commonModels.ErrDocumentNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, id.String(), "Document not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, id.String(), err)
		return
	}

	enabled := !doc.IsEnabled
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	if err := ragInstance.registry.SetEnabled(ctx, userId, id, enabled); err != nil {
		writeServiceError(w, r, id.String(), err)
		return
	}
	doc.IsEnabled = enabled
	logRH.FromContext(ctx).Info("Document toggled", "documentId", id, "enabled", enabled)
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
}

// UsageHandler godoc
// @Summary      Usage report across all sessions
// @Description  Message counts and estimated tokens per session, deleted sessions included. Requires the admin token.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  api.UsageResponse
// @Failure      403  {object}  api.JobResponse
// @Security     BearerAuth
// @Router       /admin/usage [get]
func UsageHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	sessions, err := ragInstance.transcripts.AllSessions(r.Context(), usageSessionLimit)
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToUsageResponse(sessions, ragInstance.settings.TokenCostPer1kUSD))
}

func documentIdParam(w http.ResponseWriter, r *http.Request) (commonModels.DocumentID, bool) {
	raw := utils.GetChiURLParam(r, "id")
	id, err := commonModels.ParseDocumentID(raw)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, raw, "Invalid document id")
		return "", false
	}
	return id, true
}
