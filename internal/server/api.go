package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/cadenceboard/telemetry"
)

const (
	// unknownDataAge is reported when last_update cannot be parsed.
	unknownDataAge = 999

	// logTailLines is how many lines /api/log returns.
	logTailLines = 50

	resetRequestedMessage = "Sent request to session reset"
)

type statusResponse struct {
	Status         telemetry.Freshness `json:"status"`
	LastUpdate     string              `json:"last_update"`
	DataFileExists bool                `json:"data_file_exists"`
}

type logResponse struct {
	LogLines   []string `json:"log_lines"`
	TotalLines int      `json:"total_lines"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// loadSnapshot returns the stored snapshot, falling back to the default
// payload when it cannot be read.
func (s *Server) loadSnapshot() telemetry.Payload {
	p, err := s.store.Load()
	if err != nil {
		s.logger.Info("data load error", "error", err)
	}
	return p
}

// dataResponse annotates p with its age relative to now.
func (s *Server) dataResponse(p telemetry.Payload) telemetry.DataResponse {
	resp := telemetry.DataResponse{Payload: p, DataAge: unknownDataAge}
	t, err := telemetry.ParseTimestamp(p.LastUpdate, time.Local)
	if err != nil {
		return resp
	}
	age := s.now().Sub(t)
	resp.DataAge = age.Seconds()
	resp.IsFresh = age < s.cfg.FreshThreshold
	return resp
}

func (s *Server) handleData(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dataResponse(s.loadSnapshot()))
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	err := errors.New("reset flag not configured")
	if s.resetFlag != nil {
		err = s.resetFlag.Request(s.now())
	}
	if err != nil {
		s.logger.Error("reset error",
			"correlation_id", uuid.New().String(),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, telemetry.NewResetResult("error", err.Error()))
		return
	}

	s.logger.Info("sent request to reset", "flag", s.resetFlag.Path())
	writeJSON(w, http.StatusOK, telemetry.NewResetResult(telemetry.ResetStatusSuccess, resetRequestedMessage))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	p := s.loadSnapshot()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:         telemetry.Classify(p.LastUpdate, s.now()),
		LastUpdate:     p.LastUpdate,
		DataFileExists: s.store.Exists(),
	})
}

func (s *Server) handleLog(w http.ResponseWriter, _ *http.Request) {
	resp, err := tailLog(s.cfg.LogFile, logTailLines)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// tailLog returns the last n lines of path, each with its line terminator.
// A missing file or empty path yields no lines.
func tailLog(path string, n int) (logResponse, error) {
	resp := logResponse{LogLines: []string{}}
	if path == "" {
		return resp, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return resp, nil
	}
	if err != nil {
		return resp, fmt.Errorf("failed to read log: %w", err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	resp.TotalLines = len(lines)
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	resp.LogLines = append(resp.LogLines, lines...)
	return resp, nil
}

func (s *Server) handlePulse(w http.ResponseWriter, _ *http.Request) {
	if s.cfg.Pulse == nil {
		writeError(w, http.StatusNotFound, "Page not found")
		return
	}
	s.cfg.Pulse()
	w.WriteHeader(http.StatusNoContent)
}

// handleSSE streams snapshot updates via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// may not be supported by some ResponseWriter impls
	deadlinesSupported := true

	send := func(p telemetry.Payload) error {
		data, err := json.Marshal(s.dataResponse(p))
		if err != nil {
			return nil
		}
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	if err := send(s.loadSnapshot()); err != nil {
		return
	}

	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return
			}
			if err := send(p); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and, via BaseContext, on shutdown
			return
		}
	}
}
