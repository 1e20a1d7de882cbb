// Package events carries viewer lifecycle notifications between components.
package events

import (
	"sync"
	"time"
)

// Name identifies an event kind.
type Name string

const (
	PagesInit        Name = "pagesinit"
	PageRendering    Name = "pagerendering"
	PageRendered     Name = "pagerendered"
	UpdateViewArea   Name = "updateviewarea"
	PageChanging     Name = "pagechanging"
	ScaleChanging    Name = "scalechanging"
	RotationChanging Name = "rotationchanging"
	NotesChanged     Name = "noteschanged"
	Idle             Name = "idle"
)

// Location is where the viewer is scrolled to.
type Location struct {
	PageNumber int
	Scale      float64
	Top        float64
	Left       float64
	Rotation   int
}

// Event is a single notification. Fields that do not apply to Name are zero.
type Event struct {
	Name   Name
	Source any
	At     time.Time

	PageNumber   int
	Previous     int
	PagesCount   int
	Thumbnail    bool
	CSSTransform bool
	Err          error

	Scale       float64
	PresetValue string
	Rotation    int
	Location    Location
}

// Handler receives dispatched events.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
	once    bool
}

// Bus is a synchronous publish/subscribe hub. Handlers run on the
// dispatching goroutine in subscription order.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Name][]subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Name][]subscription)}
}

// On subscribes h to name and returns a function that removes it.
func (b *Bus) On(name Name, h Handler) (off func()) {
	return b.subscribe(name, h, false)
}

// Once subscribes h for the next event named name only.
func (b *Bus) Once(name Name, h Handler) (off func()) {
	return b.subscribe(name, h, true)
}

func (b *Bus) subscribe(name Name, h Handler, once bool) func() {
	if b == nil || h == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: h, once: once})
	b.mu.Unlock()
	return func() { b.remove(name, id) }
}

func (b *Bus) remove(name Name, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Dispatch delivers e to every handler subscribed to e.Name. A nil bus
// drops the event.
func (b *Bus) Dispatch(e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.Lock()
	subs := append([]subscription(nil), b.subs[e.Name]...)
	b.mu.Unlock()

	for _, s := range subs {
		if s.once {
			b.remove(e.Name, s.id)
		}
		s.handler(e)
	}
}

// Count returns the number of handlers subscribed to name.
func (b *Bus) Count(name Name) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[name])
}
