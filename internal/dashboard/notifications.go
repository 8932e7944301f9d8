package dashboard

import (
	"strconv"
	"time"
)

const defaultNotificationTTL = 4 * time.Second

// Kind is the styling of a toast.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notification is one transient toast.
type Notification struct {
	ID        string
	Kind      Kind
	Message   string
	ExpiresAt time.Time
}

type notifier struct {
	ttl time.Duration
	seq uint64
}

func (n *notifier) push(list []Notification, kind Kind, message string, now time.Time) []Notification {
	n.seq++
	return append(list, Notification{
		ID:        "n" + strconv.FormatUint(n.seq, 10),
		Kind:      kind,
		Message:   message,
		ExpiresAt: now.Add(n.ttl),
	})
}

// prune drops toasts that expired at or before now.
func (n *notifier) prune(list []Notification, now time.Time) []Notification {
	kept := list[:0]
	for _, item := range list {
		if now.Before(item.ExpiresAt) {
			kept = append(kept, item)
		}
	}
	return kept
}
