// Package session holds the client's proof of authentication: the bearer token
// issued by the blog API together with the cached user profile.
//
// Both halves are saved and cleared together. A store never returns a token
// without its user, or the reverse; an incomplete record reads as absent.
package session

import (
	"errors"
	"sync"

	"github.com/itchan-dev/blogfront/shared/domain"
	"github.com/itchan-dev/blogfront/shared/middleware/metrics"
)

var ErrIncomplete = errors.New("session: token and user must be saved together")

type Session struct {
	Token string
	User  *domain.User
}

// Present reports whether a token is held. This alone decides the guard.
func (s Session) Present() bool {
	return s.Token != ""
}

func (s Session) complete() bool {
	return s.Token != "" && s.User != nil
}

func (s Session) same(o Session) bool {
	if s.Token != o.Token {
		return false
	}
	if s.User == nil || o.User == nil {
		return s.User == o.User
	}
	return *s.User == *o.User
}

type Store interface {
	Save(Session) error
	Read() Session
	Clear() error
}

type EventKind int

const (
	Saved EventKind = iota + 1
	Cleared
)

func (k EventKind) String() string {
	switch k {
	case Saved:
		return "saved"
	case Cleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event describes a change. Session is empty for Cleared.
type Event struct {
	Kind    EventKind
	Session Session
}

// Notifier fans events out to subscribers. The zero value is ready to use.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

// Subscribe registers fn and returns a func that removes it. fn runs on the
// goroutine that made the change and must not block.
func (n *Notifier) Subscribe(fn func(Event)) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(Event))
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *Notifier) publish(e Event) {
	metrics.SessionEvents.WithLabelValues(e.Kind.String()).Inc()

	n.mu.Lock()
	subs := make([]func(Event), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}
