package events

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/adanyl0v/go-tasks/internal/models"
)

type Type string

const (
	TaskCreated       Type = "task.created"
	TaskUpdated       Type = "task.updated"
	TaskStatusChanged Type = "task.status_changed"
	TaskArchived      Type = "task.archived"
	TaskUnarchived    Type = "task.unarchived"
	TaskDeleted       Type = "task.deleted"
	TaskRestored      Type = "task.restored"
	TaskPurged        Type = "task.purged"
	TasksDeletedAll   Type = "tasks.deleted_all"
)

// Event describes a completed mutation. Task is nil for purges and bulk
// deletes; TaskID is zero for bulk deletes.
type Event struct {
	Type       Type
	UserID     string
	TaskID     int64
	Task       *models.Task
	Affected   int64
	OccurredAt time.Time
}

type Publisher interface {
	Publish(e Event)
}

const subscriberBuffer = 64

var droppedEvents = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "task_events_dropped_total",
	Help: "Task events dropped because a subscriber was not keeping up",
})

func init() {
	prometheus.MustRegister(droppedEvents)
}

// Hub fans events out to the subscribers of the event's user.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	ch chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers for the user's events. The channel is closed once
// cancel is called or the hub is closed.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[userID][sub]; !ok {
				return
			}
			delete(h.subs[userID], sub)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish never blocks: a subscriber with a full buffer misses the event.
func (h *Hub) Publish(e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[e.UserID] {
		select {
		case sub.ch <- e:
		default:
			droppedEvents.Inc()
		}
	}
}

func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for userID, subs := range h.subs {
		for sub := range subs {
			close(sub.ch)
		}
		delete(h.subs, userID)
	}
}
