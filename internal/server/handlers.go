package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"

	errx "github.com/retail-assistant/server/internal/core/error"
	"github.com/retail-assistant/server/internal/observability"
	logx "github.com/retail-assistant/server/pkg/logger"
)

const (
	UserIDHeader = "X-User-ID"

	defaultInteractions = 50
	maxInteractions     = 1000
	maxChatBody         = 64 << 10
)

type ChatRequest struct {
	Query string `json:"query"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

// MetricsPlaceholder mirrors the legacy /metrics payload; real counters are
// served at /metrics/prometheus.
type MetricsPlaceholder struct {
	TotalQueries      int            `json:"total_queries"`
	ToolsUsed         map[string]int `json:"tools_used"`
	AvgResponseTimeMS int            `json:"avg_response_time_ms"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := sonic.ConfigDefault.NewDecoder(io.LimitReader(r.Body, maxChatBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.chat.Answer(r.Context(), req.Query, r.Header.Get(UserIDHeader))
	if err != nil {
		if errors.Is(err, errx.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, errx.ErrEmptyQuery.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, errx.SystemErrorMessage)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply.Text})
}

func (s *Server) metricsPlaceholderHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MetricsPlaceholder{ToolsUsed: map[string]int{}})
}

func (s *Server) interactionsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultInteractions
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxInteractions)
	}

	items, err := s.chat.Recent(r.Context(), limit)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to read interactions")
		writeError(w, errx.StatusOf(err), errx.SystemErrorMessage)
		return
	}
	if items == nil {
		items = []observability.Interaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// transcribeHandler accepts either a multipart "file" field or a raw body.
func (s *Server) transcribeHandler(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		writeError(w, http.StatusServiceUnavailable, "speech transcription is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxAudioBytes)

	audio, filename, err := readAudio(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "audio is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid audio upload")
		return
	}

	text, err := s.speech.Transcribe(r.Context(), audio, filename)
	if err != nil {
		logx.Error().Err(err).Msg("Transcription failed")
		status, msg := errx.Public(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func readAudio(r *http.Request) ([]byte, string, error) {
	if f, hdr, err := r.FormFile("file"); err == nil {
		defer f.Close()
		b, err := io.ReadAll(f)
		return b, hdr.Filename, err
	} else if !errors.Is(err, http.ErrNotMultipart) {
		return nil, "", err
	}
	b, err := io.ReadAll(r.Body)
	return b, "", err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
