package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Inbox keeps notifications newest first. It is safe for concurrent use.
type Inbox struct {
	mu    sync.RWMutex
	items []Notification
	prefs Preferences
	now   func() time.Time
}

func NewInbox() *Inbox {
	return &Inbox{prefs: DefaultPreferences, now: time.Now}
}

// Add stores n as unread at the head of the inbox and returns the stored copy.
func (b *Inbox) Add(n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Kind == "" {
		n.Kind = KindInfo
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = b.now()
	}
	n.Read = false

	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append([]Notification{n}, b.items...)
	return n
}

// MarkRead reports whether a notification with id exists.
func (b *Inbox) MarkRead(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		if b.items[i].ID == id {
			b.items[i].Read = true
			return true
		}
	}
	return false
}

func (b *Inbox) MarkAllRead() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		b.items[i].Read = true
	}
}

// Remove reports whether a notification with id was removed.
func (b *Inbox) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		if b.items[i].ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of the notifications, newest first.
func (b *Inbox) List() []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Notification, len(b.items))
	copy(out, b.items)
	return out
}

// UnreadCount is recomputed from the stored notifications on every call.
func (b *Inbox) UnreadCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, n := range b.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (b *Inbox) Preferences() Preferences {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.prefs
}

// UpdatePreferences merges update into the current preferences.
func (b *Inbox) UpdatePreferences(update PreferencesUpdate) Preferences {
	b.mu.Lock()
	defer b.mu.Unlock()

	if update.TaskReminders != nil {
		b.prefs.TaskReminders = *update.TaskReminders
	}
	if update.IntimationDeadlines != nil {
		b.prefs.IntimationDeadlines = *update.IntimationDeadlines
	}
	if update.Native != nil {
		b.prefs.Native = *update.Native
	}
	return b.prefs
}
