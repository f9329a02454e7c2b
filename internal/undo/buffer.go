// Package undo keeps the text overwritten by recent rewrites so a single
// step can be restored.
package undo

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of entries kept before the oldest is
// evicted.
const DefaultCapacity = 10

// ErrNothingToUndo is returned by Restore when the location has no entry.
// It is an informational condition, not a failure.
var ErrNothingToUndo = errors.New("no text to undo")

// Location identifies an editable surface by tab and frame.
type Location struct {
	TabID   string `json:"tabId"`
	FrameID int    `json:"frameId"`
}

// Entry is a single-use saved copy of overwritten text.
type Entry struct {
	ID           string    `json:"id"`
	Location     Location  `json:"location"`
	OriginalText string    `json:"originalText"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Buffer is a bounded most-recent-first history. The zero value is not
// usable; call New.
type Buffer struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	now      func() time.Time
}

// New creates a buffer holding at most capacity entries. A non-positive
// capacity selects DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		entries:  make([]Entry, 0, capacity+1),
		capacity: capacity,
		now:      time.Now,
	}
}

// Record inserts an entry at the front and evicts past capacity.
func (b *Buffer) Record(loc Location, originalText string) Entry {
	e := Entry{
		ID:           uuid.NewString(),
		Location:     loc,
		OriginalText: originalText,
		CreatedAt:    b.now(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, Entry{})
	copy(b.entries[1:], b.entries)
	b.entries[0] = e
	if len(b.entries) > b.capacity {
		b.entries = b.entries[:b.capacity]
	}
	return e
}

// Find returns the most recent entry for loc.
func (b *Buffer) Find(loc Location) (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.index(loc); i >= 0 {
		return b.entries[i], true
	}
	return Entry{}, false
}

// Remove deletes the entry with e's ID. It reports whether anything was
// removed.
func (b *Buffer) Remove(e Entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.entries {
		if b.entries[i].ID == e.ID {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Restore returns the most recent original text for loc and removes its
// entry, or ErrNothingToUndo.
func (b *Buffer) Restore(loc Location) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.index(loc)
	if i < 0 {
		return "", ErrNothingToUndo
	}
	text := b.entries[i].OriginalText
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	return text, nil
}

// Len returns the number of entries held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Entries returns a copy of the history, most recent first.
func (b *Buffer) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.entries...)
}

func (b *Buffer) index(loc Location) int {
	for i := range b.entries {
		if b.entries[i].Location == loc {
			return i
		}
	}
	return -1
}
