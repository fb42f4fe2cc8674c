// Package ant tracks abstract goal lifecycles and broadcasts status-change
// notifications to subscribers. It keeps no persistent state and is
// decoupled from the RPC server.
package ant

import (
	"errors"
	"fmt"
	"sync"
)

// SchemaVersion is the event schema version. Compatibility rules: the
// version must match exactly; new event types are additive within the same
// version; existing field names keep their semantics.
const SchemaVersion = 1

// GoalStatus is the lifecycle state of one goal.
type GoalStatus string

const (
	StatusPending   GoalStatus = "pending"
	StatusRunning   GoalStatus = "running"
	StatusCompleted GoalStatus = "completed"
	StatusFailed    GoalStatus = "failed"
	StatusCancelled GoalStatus = "cancelled"
)

// Event types.
const (
	EventGoalCreated       = "goal_created"
	EventGoalCancelled     = "goal_cancelled"
	EventGoalStatusChanged = "goal_status_changed"
)

// Event is one goal notification.
type Event struct {
	Type   string     `json:"type"`
	GoalID string     `json:"goal_id"`
	Task   string     `json:"task,omitempty"`
	Status GoalStatus `json:"status,omitempty"`
}

// VersionedEvent wraps an event with its schema version.
type VersionedEvent struct {
	SchemaVersion int   `json:"schema_version"`
	Event         Event `json:"event"`
}

var (
	ErrGoalExists   = errors.New("goal already exists")
	ErrGoalNotFound = errors.New("goal not found")
)

const subscriberBuffer = 1024

// Engine is the in-memory goal registry and event bus.
type Engine struct {
	mu      sync.Mutex
	goals   map[string]GoalStatus
	subs    map[int]chan VersionedEvent
	nextSub int
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{
		goals: make(map[string]GoalStatus),
		subs:  make(map[int]chan VersionedEvent),
	}
}

// CreateGoal registers a new goal in the pending state and emits creation
// and status-change events.
func (e *Engine) CreateGoal(goalID, task string) error {
	e.mu.Lock()
	if _, exists := e.goals[goalID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrGoalExists, goalID)
	}
	e.goals[goalID] = StatusPending
	e.mu.Unlock()

	e.emit(Event{Type: EventGoalCreated, GoalID: goalID, Task: task})
	e.emit(Event{Type: EventGoalStatusChanged, GoalID: goalID, Status: StatusPending})
	return nil
}

// GoalStatus returns the current status of a goal.
func (e *Engine) GoalStatus(goalID string) (GoalStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	status, ok := e.goals[goalID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
	}
	return status, nil
}

// SetStatus moves a goal to the given status and notifies subscribers.
func (e *Engine) SetStatus(goalID string, status GoalStatus) error {
	e.mu.Lock()
	if _, ok := e.goals[goalID]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
	}
	e.goals[goalID] = status
	e.mu.Unlock()

	e.emit(Event{Type: EventGoalStatusChanged, GoalID: goalID, Status: status})
	return nil
}

// CancelGoal marks a goal cancelled and emits cancellation and
// status-change events.
func (e *Engine) CancelGoal(goalID string) error {
	e.mu.Lock()
	if _, ok := e.goals[goalID]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
	}
	e.goals[goalID] = StatusCancelled
	e.mu.Unlock()

	e.emit(Event{Type: EventGoalCancelled, GoalID: goalID})
	e.emit(Event{Type: EventGoalStatusChanged, GoalID: goalID, Status: StatusCancelled})
	return nil
}

// Subscribe registers an event channel. The returned cancel function
// removes the subscription and closes the channel.
func (e *Engine) Subscribe() (<-chan VersionedEvent, func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	ch := make(chan VersionedEvent, subscriberBuffer)
	e.subs[id] = ch
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if sub, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(sub)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// emit fans an event out to all subscribers. A subscriber that has fallen
// behind drops events rather than blocking the emitter.
func (e *Engine) emit(event Event) {
	versioned := VersionedEvent{SchemaVersion: SchemaVersion, Event: event}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- versioned:
		default:
		}
	}
}
