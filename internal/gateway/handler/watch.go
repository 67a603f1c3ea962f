package handler

import (
	"log"
	"net/http"
)

// handleWatch upgrades to a websocket and streams job state changes until
// the job reaches a terminal state. A client that only wants polling uses
// the status endpoint instead.
func (s *Service) handleWatch(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	ch, cancel, ok := s.queue.Watch(jobID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "Job not found",
			"jobId": jobID,
		})
		return
	}
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("watch %s: upgrade: %v", jobID, err)
		return
	}
	defer conn.Close()

	// Send the current state first so late subscribers see something
	// immediately.
	if job, ok := s.queue.Get(jobID); ok {
		if err := conn.WriteJSON(job); err != nil {
			return
		}
	}
	for job := range ch {
		if err := conn.WriteJSON(job); err != nil {
			return
		}
	}
}
