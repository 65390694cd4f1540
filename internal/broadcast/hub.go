// Package broadcast fans job progress out to observers grouped by job id,
// the way socket-style rooms work: observers join and leave a job's room,
// and events are pushed best-effort to whoever is in it at the time.
// Delivery is not guaranteed; the registry remains the durable source of
// current state for anyone who missed an event.
package broadcast

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"videoforge/models"
)

// Event types pushed to observers.
const (
	EventProgress = "job-progress"
	EventComplete = "job-complete"
	EventError    = "job-error"
)

// Event is one real-time update for a job.
type Event struct {
	Type      string    `json:"type"`
	JobID     string    `json:"job_id"`
	Progress  *int      `json:"progress,omitempty"`
	Status    string    `json:"status,omitempty"`
	OutputURL string    `json:"output_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Observer is one connected client interested in a job. Send must be safe
// for concurrent use; a Send error drops the observer from every room.
type Observer interface {
	ID() string
	Send(event Event) error
}

// Hub maps job ids to their current observer sets.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Observer
	logger *logrus.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]Observer),
		logger: logger,
	}
}

// Join registers an observer's interest in a job.
func (h *Hub) Join(jobID string, observer Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[jobID]
	if !ok {
		room = make(map[string]Observer)
		h.rooms[jobID] = room
	}
	room[observer.ID()] = observer
}

// Leave removes an observer from one job's room.
func (h *Hub) Leave(jobID, observerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(jobID, observerID)
}

// LeaveAll removes an observer from every room, typically on disconnect.
func (h *Hub) LeaveAll(observerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for jobID := range h.rooms {
		h.removeLocked(jobID, observerID)
	}
}

func (h *Hub) removeLocked(jobID, observerID string) {
	room, ok := h.rooms[jobID]
	if !ok {
		return
	}
	delete(room, observerID)
	if len(room) == 0 {
		delete(h.rooms, jobID)
	}
}

// NotifyProgress pushes a progress update to a job's observers.
func (h *Hub) NotifyProgress(jobID string, progress int, status models.JobStatus) {
	h.publish(jobID, Event{
		Type:      EventProgress,
		JobID:     jobID,
		Progress:  &progress,
		Status:    string(status),
		Timestamp: time.Now(),
	})
}

// NotifyComplete pushes the terminal success event for a job.
func (h *Hub) NotifyComplete(jobID, outputURL string) {
	h.publish(jobID, Event{
		Type:      EventComplete,
		JobID:     jobID,
		OutputURL: outputURL,
		Timestamp: time.Now(),
	})
}

// NotifyError pushes the terminal failure event for a job.
func (h *Hub) NotifyError(jobID, message string) {
	h.publish(jobID, Event{
		Type:      EventError,
		JobID:     jobID,
		Error:     message,
		Timestamp: time.Now(),
	})
}

// publish delivers an event to a snapshot of the room so sends never run
// under the hub lock and concurrent join/leave stays safe.
func (h *Hub) publish(jobID string, event Event) {
	h.mu.RLock()
	room := h.rooms[jobID]
	observers := make([]Observer, 0, len(room))
	for _, observer := range room {
		observers = append(observers, observer)
	}
	h.mu.RUnlock()

	for _, observer := range observers {
		if err := observer.Send(event); err != nil {
			if h.logger != nil {
				h.logger.WithFields(logrus.Fields{
					"job_id":      jobID,
					"observer_id": observer.ID(),
					"error":       err.Error(),
				}).Warn("Dropping unreachable observer")
			}
			h.LeaveAll(observer.ID())
		}
	}
}
