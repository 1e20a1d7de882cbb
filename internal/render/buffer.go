package render

import "container/list"

// DefaultCacheSize is the smallest capacity a Buffer is resized to.
const DefaultCacheSize = 10

// Buffered is a view the buffer can evict.
type Buffered interface {
	ID() int
	RenderingState() State
	Destroy()
}

// Buffer is a bounded most-recently-used set of views. Evicted views are
// destroyed. Views that are running or paused are never evicted; the buffer
// may briefly exceed its capacity instead.
type Buffer struct {
	size    int
	order   *list.List // front = least recently used
	entries map[Buffered]*list.Element
}

// NewBuffer creates a buffer holding at most size views.
func NewBuffer(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{
		size:    size,
		order:   list.New(),
		entries: make(map[Buffered]*list.Element),
	}
}

// CapacityFor returns the buffer size needed to keep visibleCount views plus
// slack on either side.
func CapacityFor(visibleCount int) int {
	return max(DefaultCacheSize, 2*visibleCount+1)
}

// Push marks v as most recently used, adding it if absent, and evicts the
// least recently used views beyond capacity.
func (b *Buffer) Push(v Buffered) {
	if el, ok := b.entries[v]; ok {
		b.order.MoveToBack(el)
	} else {
		b.entries[v] = b.order.PushBack(v)
	}
	b.evict()
}

// Resize changes the capacity. Views in keep are moved to the most recently
// used end first so they survive the shrink.
func (b *Buffer) Resize(size int, keep ...Buffered) {
	if size < 1 {
		size = 1
	}
	b.size = size
	for _, v := range keep {
		if el, ok := b.entries[v]; ok {
			b.order.MoveToBack(el)
		}
	}
	b.evict()
}

// Has reports whether v is buffered.
func (b *Buffer) Has(v Buffered) bool {
	_, ok := b.entries[v]
	return ok
}

// Len returns the number of buffered views.
func (b *Buffer) Len() int { return b.order.Len() }

// Size returns the current capacity.
func (b *Buffer) Size() int { return b.size }

// Views returns the buffered views from least to most recently used.
func (b *Buffer) Views() []Buffered {
	out := make([]Buffered, 0, b.order.Len())
	for el := b.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(Buffered))
	}
	return out
}

// Reset forgets every view without destroying any.
func (b *Buffer) Reset() {
	b.order.Init()
	clear(b.entries)
}

func (b *Buffer) evict() {
	for b.order.Len() > b.size {
		victim := b.oldestIdle()
		if victim == nil {
			return
		}
		v := victim.Value.(Buffered)
		b.order.Remove(victim)
		delete(b.entries, v)
		v.Destroy()
	}
}

func (b *Buffer) oldestIdle() *list.Element {
	for el := b.order.Front(); el != nil; el = el.Next() {
		switch el.Value.(Buffered).RenderingState() {
		case StateRunning, StatePaused:
			continue
		}
		return el
	}
	return nil
}
