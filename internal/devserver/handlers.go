package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Backland-Labs/waitlist/internal/core"
	"github.com/Backland-Labs/waitlist/internal/logger"
)

const contentTypeJSON = "application/json"

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "waitlist-devserver",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) createThreadHandler(w http.ResponseWriter, r *http.Request) {
	thread := s.backend.CreateThread()
	s.respondJSON(w, http.StatusOK, map[string]any{
		"id":         thread.ID,
		"object":     "thread",
		"created_at": time.Now().Unix(),
	})
}

func (s *Server) createMessageHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ThreadID string `json:"threadId"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if payload.ThreadID == "" || strings.TrimSpace(payload.Content) == "" {
		s.respondWithError(w, http.StatusBadRequest, "threadId and content are required")
		return
	}

	msg, err := s.backend.AddMessage(payload.ThreadID, payload.Content)
	if err != nil {
		s.respondWithBackendError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, msg)
}

func (s *Server) createRunHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AssistantID string `json:"assistant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if payload.AssistantID == "" {
		s.respondWithError(w, http.StatusBadRequest, "assistant_id is required")
		return
	}

	run, err := s.backend.CreateRun(r.PathValue("threadId"), payload.AssistantID)
	if err != nil {
		s.respondWithBackendError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) getRunHandler(w http.ResponseWriter, r *http.Request) {
	run, err := s.backend.Poll(r.PathValue("threadId"), r.PathValue("runId"))
	if err != nil {
		s.respondWithBackendError(w, err)
		return
	}
	logger.WithRun(run.ThreadID, run.ID).WithField("status", run.Status.String()).Debug("Run polled")
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) submitToolOutputsHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ToolOutputs []core.ToolOutput `json:"tool_outputs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if err := s.backend.SubmitToolOutputs(r.PathValue("threadId"), r.PathValue("runId"), payload.ToolOutputs); err != nil {
		s.respondWithBackendError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("Tool outputs submitted"))
}

func (s *Server) listMessagesHandler(w http.ResponseWriter, r *http.Request) {
	messages, err := s.backend.Messages(r.PathValue("threadId"))
	if err != nil {
		s.respondWithBackendError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   messages,
	})
}

func (s *Server) addSubscriberHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Email == "" {
		s.respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	if s.subscribers != nil {
		if err := s.subscribers.Subscribe(r.Context(), payload.Email); err != nil {
			logger.WithField("error", err).Error("Failed to store subscriber")
			s.respondWithError(w, http.StatusInternalServerError, "Failed to add subscriber")
			return
		}
	} else {
		logger.WithField("email", payload.Email).Info("Pretending to add subscriber")
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"email_address": payload.Email,
		"status":        "subscribed",
	})
}

func (s *Server) chatCompletionsHandler(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if len(req.Messages) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "messages are required")
		return
	}

	ids := rankCandidates(req.Messages)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"id":      newID("chatcmpl"),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]string{
				"role":    "assistant",
				"content": strings.Join(ids, ","),
			},
		}},
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithField("error", err.Error()).Error("Failed to encode response")
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	logger.WithFields(map[string]interface{}{
		"status_code":   statusCode,
		"error_message": message,
	}).Debug("Sending error response")
	s.respondJSON(w, statusCode, map[string]string{"error": message})
}

// respondWithBackendError maps Backend errors onto status codes
func (s *Server) respondWithBackendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrThreadNotFound), errors.Is(err, ErrRunNotFound):
		s.respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRunActive), errors.Is(err, ErrRunNotWaiting):
		s.respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrBadToolOutputs):
		s.respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		s.respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
