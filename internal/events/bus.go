// Package events fans engine notifications out to in-process subscribers.
package events

import (
	"log/slog"
	"sync"
	"time"
)

const (
	TypeGoalStatusChanged     = "goal.status_changed"
	TypeGoalMultiplierChanged = "goal.multiplier_changed"
	TypeGoalProgress          = "goal.progress"
	TypeGoalSettled           = "goal.settled"
)

type Event struct {
	Type   string    `json:"type"`
	GoalID string    `json:"goal_id"`
	At     time.Time `json:"at"`
	Data   any       `json:"data,omitempty"`
}

type StatusChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type MultiplierChange struct {
	Multiplier      float64 `json:"multiplier"`
	SupportersCount int     `json:"supporters_count"`
	TotalStaked     int64   `json:"total_staked"`
}

type Progress struct {
	CurrentValue    float64 `json:"current_value"`
	PercentComplete int     `json:"percent_complete"`
	LargeSwing      bool    `json:"large_swing"`
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(e Event)
}

// Bus delivers each event to every subscriber. Delivery never blocks the
// publisher: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			slog.Warn("event dropped for slow subscriber", "subscriber", id, "type", e.Type, "goal_id", e.GoalID)
		}
	}
}

// Subscribe returns a channel of events and a func that unsubscribes and closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(Event) {}
