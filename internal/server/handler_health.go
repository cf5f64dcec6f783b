package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status       string `json:"status"`
	GoVersion    string `json:"go_version"`
	Uptime       string `json:"uptime"`
	Processors   int    `json:"processors"`
	MaxProcesses int    `json:"max_processes"`
	Processes    int    `json:"processes"`
	MemoryFree   int    `json:"memory_free"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.sched.Status()
	p := s.sched.Params()
	respondOK(w, "healthy", healthResponse{
		Status:       "healthy",
		GoVersion:    runtime.Version(),
		Uptime:       time.Since(s.startTime).Round(time.Second).String(),
		Processors:   p.Processors,
		MaxProcesses: p.MaxProcesses,
		Processes:    st.Queue.Len(),
		MemoryFree:   st.Memory.Free(),
	})
}
