// Package events broadcasts content changes so every instance can drop its
// cached pages.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject carries every content event.
const Subject = "photoblog.content"

// Event types.
const (
	PostCreated = "post.created"
	PostUpdated = "post.updated"
	PostDeleted = "post.deleted"
	TagChanged  = "tag.changed"
)

// Event describes one content mutation.
type Event struct {
	Type   string    `json:"type"`
	PostID uint      `json:"post_id,omitempty"`
	TagID  uint      `json:"tag_id,omitempty"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// Bus publishes events and delivers events from other instances.
type Bus interface {
	Publish(ev Event) error
	Subscribe(fn func(Event)) error
	Close() error
}

// Nop is a Bus for single-instance deployments.
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Subscribe(func(Event)) error { return nil }
func (Nop) Close() error { return nil }

// NATS is a Bus backed by a NATS connection.
type NATS struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	origin string
	l      *zap.Logger
}

// ConnectNATS dials url and returns a Bus tagged with a fresh instance id.
func ConnectNATS(url string, l *zap.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("photoblog"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATS{nc: nc, origin: uuid.NewString(), l: l}, nil
}

// Origin identifies this instance in published events.
func (n *NATS) Origin() string { return n.origin }

func (n *NATS) Publish(ev Event) error {
	ev.Origin = n.origin
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return n.nc.Publish(Subject, b)
}

// Subscribe calls fn for events published by other instances.
func (n *NATS) Subscribe(fn func(Event)) error {
	sub, err := n.nc.Subscribe(Subject, func(msg *nats.Msg) {
		if ev, ok := n.decode(msg.Data); ok {
			fn(ev)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", Subject, err)
	}
	n.sub = sub
	return nil
}

func (n *NATS) decode(data []byte) (Event, bool) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		n.l.Warn("dropping malformed event", zap.Error(err))
		return Event{}, false
	}
	if ev.Origin == n.origin {
		return Event{}, false
	}
	return ev, true
}

func (n *NATS) Close() error {
	if n.sub != nil {
		_ = n.sub.Unsubscribe()
	}
	return n.nc.Drain()
}
