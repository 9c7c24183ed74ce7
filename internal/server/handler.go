package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gnurante/internal/langdetect"
	"gnurante/internal/logging"
	"gnurante/internal/pipeline"
	"gnurante/internal/subtitles"
	"gnurante/internal/transcript"
	"gnurante/internal/translate"
)

// SubtitlesRequest is the body of POST /v1/subtitles. Segments, Text or both
// may be set; Duration is needed when only Text is supplied.
type SubtitlesRequest struct {
	Segments []transcript.RawSegment `json:"segments"`
	Text     string                  `json:"text"`
	Duration float64                 `json:"duration"`
}

// Cue is one rendered subtitle in the response.
type Cue struct {
	Ordinal int     `json:"ordinal"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// SubtitlesResponse is returned on success.
type SubtitlesResponse struct {
	RunID       string  `json:"run_id"`
	Language    string  `json:"language"`
	Confidence  float64 `json:"confidence"`
	SyncMode    string  `json:"sync_mode"`
	SRT         string  `json:"srt"`
	Cues        []Cue   `json:"cues"`
	FailedUnits []int   `json:"failed_units,omitempty"`
	Empty       bool    `json:"empty"`
	ElapsedMS   int64   `json:"elapsed_ms"`
}

// ErrorResponse carries a message and, for pipeline failures, the stage.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
	RunID string `json:"run_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	if s.opts.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	}
	var req SubtitlesRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Duration < 0 {
		s.writeError(w, http.StatusBadRequest, "duration must not be negative")
		return
	}

	if s.metrics != nil {
		s.metrics.RunStarted()
		defer s.metrics.RunDone()
	}
	result, err := s.runner.Run(r.Context(), pipeline.Input{Segments: req.Segments, Text: req.Text}, req.Duration)
	if err != nil {
		status := statusForError(err)
		payload := ErrorResponse{Error: err.Error()}
		var failure *pipeline.Failure
		if errors.As(err, &failure) {
			payload.Stage = failure.Stage.String()
			payload.RunID = failure.RunID
		}
		if status >= http.StatusInternalServerError {
			logging.WithContext(r.Context(), s.logger).Warn("subtitle request failed",
				logging.String(logging.FieldEventType, "request_failed"),
				logging.Int("status", status),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check translation backend health"),
				logging.String(logging.FieldImpact, "client received no subtitles"),
			)
		}
		s.writeJSON(w, status, payload)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(result))
}

func toResponse(result pipeline.Result) SubtitlesResponse {
	resp := SubtitlesResponse{
		RunID:       result.RunID,
		SRT:         result.SRT,
		Cues:        make([]Cue, 0, len(result.Entries)),
		FailedUnits: result.FailedUnits,
		Empty:       result.Empty,
		ElapsedMS:   result.Duration.Milliseconds(),
	}
	if t := result.Transcript; t != nil {
		resp.Language = t.Language
		resp.Confidence = t.Confidence
		resp.SyncMode = t.Mode.String()
	}
	for _, e := range result.Entries {
		resp.Cues = append(resp.Cues, Cue{Ordinal: e.Ordinal, Start: e.Start, End: e.End, Text: e.Text})
	}
	return resp
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, transcript.ErrInvalidInterval),
		errors.Is(err, subtitles.ErrUntranslated),
		errors.Is(err, langdetect.ErrUndeterminedLanguage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, translate.ErrUnitFailure),
		errors.Is(err, pipeline.ErrTooManyUnitFailures):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
