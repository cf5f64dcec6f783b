package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/schedview/internal/simulator"
	"github.com/me/schedview/pkg/model"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondOK(w, "status fetched", s.sched.Status())
}

func (s *Server) handleCreateProcess(w http.ResponseWriter, r *http.Request) {
	var info model.ProcessInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		respondError(w, "invalid request body", err)
		return
	}

	p, err := s.sched.Create(info)
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(w, "invalid process info", err)
		case errors.Is(err, simulator.ErrNoMemory):
			respondError(w, "memory allocation failed", err)
		default:
			respondError(w, "create process failed", err)
		}
		return
	}

	s.logger.Debug("process created", "pid", p.PID, "state", p.State, "memory_start", p.MemoryStart,
		"request_id", RequestIDFromContext(r.Context()))
	respondOK(w, "process added", p)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	q := s.sched.Step()
	respondOK(w, "schedule step executed", q)
}

func (s *Server) handleSuspend(w http.ResponseWriter, r *http.Request) {
	pid, ok := pidParam(w, r)
	if !ok {
		return
	}
	if err := s.sched.Suspend(pid); err != nil {
		respondError(w, "suspend failed", err)
		return
	}
	respondOK(w, fmt.Sprintf("process %d suspended", pid), nil)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	pid, ok := pidParam(w, r)
	if !ok {
		return
	}
	if err := s.sched.Resume(pid); err != nil {
		respondError(w, "resume failed", err)
		return
	}
	respondOK(w, fmt.Sprintf("process %d resumed", pid), nil)
}

func (s *Server) handleProcessorStatus(w http.ResponseWriter, r *http.Request) {
	respondOK(w, "processor status fetched", model.ProcessorStatusData{Processors: s.sched.Processors()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.sched.Reset()
	s.logger.Info("system reset", "request_id", RequestIDFromContext(r.Context()))
	respondOK(w, "system reset", nil)
}

// pidParam parses the {pid} URL parameter, answering the request itself
// when it is not a positive integer.
func pidParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "pid")
	pid, err := strconv.Atoi(raw)
	if err != nil || pid <= 0 {
		respondError(w, "invalid process id", fmt.Errorf("pid %q is not a positive integer", raw))
		return 0, false
	}
	return pid, true
}
