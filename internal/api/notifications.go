package api

import (
	"context"
	"sync"
	"time"

	"github.com/Spotas/Ai-rewrite/internal/rewrite"
)

// maxQueued bounds each tab's pending notifications.
const maxQueued = 50

// QueuedNotification is a notification waiting to be polled by a client.
type QueuedNotification struct {
	rewrite.Notification
	FrameID int       `json:"frameId"`
	At      time.Time `json:"at"`
}

// NotificationQueue holds notifications per tab until the client polls
// for them. It implements rewrite.Notifier.
type NotificationQueue struct {
	mu    sync.Mutex
	byTab map[string][]QueuedNotification
	now   func() time.Time
}

func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{
		byTab: make(map[string][]QueuedNotification),
		now:   time.Now,
	}
}

func (q *NotificationQueue) Notify(_ context.Context, loc rewrite.Location, n rewrite.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := append(q.byTab[loc.TabID], QueuedNotification{Notification: n, FrameID: loc.FrameID, At: q.now()})
	if len(pending) > maxQueued {
		pending = pending[len(pending)-maxQueued:]
	}
	q.byTab[loc.TabID] = pending
	return nil
}

// Drain returns and forgets the pending notifications for tab, dropping
// any whose display duration has already passed.
func (q *NotificationQueue) Drain(tab string) []QueuedNotification {
	q.mu.Lock()
	pending := q.byTab[tab]
	delete(q.byTab, tab)
	q.mu.Unlock()

	now := q.now()
	out := make([]QueuedNotification, 0, len(pending))
	for _, n := range pending {
		if n.Level == rewrite.LevelProgress && now.Sub(n.At) > time.Duration(n.DurationMs)*time.Millisecond {
			continue
		}
		out = append(out, n)
	}
	return out
}
