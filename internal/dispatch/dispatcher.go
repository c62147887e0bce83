package dispatch

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/KirkDiggler/sessionscribe/internal/services/tracker"
)

// EventType identifies a lifecycle event
type EventType string

const (
	// EventMemberJoin indicates a member joined a guild
	EventMemberJoin EventType = "member_join"

	// EventMemberLeave indicates a member left a guild
	EventMemberLeave EventType = "member_leave"

	// EventMessage indicates a member sent a message in a guild channel
	EventMessage EventType = "message"

	// EventBootstrapMember indicates a member was found present at startup
	EventBootstrapMember EventType = "bootstrap_member"
)

// Event is one lifecycle signal from the gateway
type Event struct {
	Type    EventType
	GuildID string
	UserID  string

	// ChannelID is set for message events only
	ChannelID string
}

// defaultQueueSize bounds the event queue; events beyond it are dropped
const defaultQueueSize = 256

// Config holds configuration for the dispatcher
type Config struct {
	// Tracker service the events are applied to
	Tracker tracker.Service

	// Optional queue size, defaults to defaultQueueSize
	QueueSize int
}

// Dispatcher drains lifecycle events through a single worker, preserving
// arrival order. Store failures are logged and the loop continues.
type Dispatcher struct {
	tracker tracker.Service
	events  chan Event
	done    chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

// New creates a new dispatcher
func New(cfg *Config) (*Dispatcher, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Tracker == nil {
		return nil, errors.New("tracker service cannot be nil")
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Dispatcher{
		tracker: cfg.Tracker,
		events:  make(chan Event, queueSize),
		done:    make(chan struct{}),
	}, nil
}

// Start launches the worker goroutine; repeated calls and calls after Stop
// are no-ops
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.closed {
		return
	}
	d.started = true

	go d.run()
}

// Stop closes the queue and, if the worker was started, waits for queued
// events to drain before returning
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	started := d.started
	d.mu.Unlock()

	if started {
		<-d.done
	}
}

// Enqueue adds an event to the queue. It returns false if the dispatcher is
// stopped or the queue is full, in which case the event is dropped.
func (d *Dispatcher) Enqueue(event Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	select {
	case d.events <- event:
		return true
	default:
		log.Printf("[SessionScribe][DROP] queue full, dropping %s for user %s in guild %s",
			event.Type, event.UserID, event.GuildID)
		return false
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for event := range d.events {
		d.handle(context.Background(), event)
	}
}

func (d *Dispatcher) handle(ctx context.Context, event Event) {
	switch event.Type {
	case EventMemberJoin:
		out, err := d.tracker.StartSession(ctx, &tracker.StartSessionInput{
			GuildID: event.GuildID,
			UserID:  event.UserID,
		})
		if err != nil {
			log.Printf("[SessionScribe][JOIN] failed to start session for user %s in guild %s: %v",
				event.UserID, event.GuildID, err)
			return
		}
		log.Printf("[SessionScribe][JOIN] user %s in guild %s at %s",
			event.UserID, event.GuildID, out.Session.JoinTime.Format(time.RFC3339))

	case EventMemberLeave:
		out, err := d.tracker.EndSession(ctx, &tracker.EndSessionInput{
			GuildID: event.GuildID,
			UserID:  event.UserID,
		})
		if err != nil {
			log.Printf("[SessionScribe][LEAVE] failed to end session for user %s in guild %s: %v",
				event.UserID, event.GuildID, err)
			return
		}
		if out.Closed {
			log.Printf("[SessionScribe][LEAVE] user %s in guild %s, %d channel(s) recorded",
				event.UserID, event.GuildID, len(out.Session.ChannelCounts))
		} else {
			log.Printf("[SessionScribe][LEAVE] user %s in guild %s had no open session",
				event.UserID, event.GuildID)
		}

	case EventMessage:
		_, err := d.tracker.RecordMessage(ctx, &tracker.RecordMessageInput{
			GuildID:   event.GuildID,
			UserID:    event.UserID,
			ChannelID: event.ChannelID,
		})
		if err != nil {
			log.Printf("[SessionScribe][MESSAGE] failed to record message from user %s in guild %s: %v",
				event.UserID, event.GuildID, err)
		}

	case EventBootstrapMember:
		out, err := d.tracker.EnsureSession(ctx, &tracker.EnsureSessionInput{
			GuildID: event.GuildID,
			UserID:  event.UserID,
		})
		if err != nil {
			log.Printf("[SessionScribe][INIT] failed to reconcile user %s in guild %s: %v",
				event.UserID, event.GuildID, err)
			return
		}
		if out.Created {
			log.Printf("[SessionScribe][INIT] started session for user %s in guild %s",
				event.UserID, event.GuildID)
		} else {
			log.Printf("[SessionScribe][INIT] found existing session for user %s in guild %s",
				event.UserID, event.GuildID)
		}

	default:
		log.Printf("[SessionScribe][DISPATCH] unknown event type: %s", event.Type)
	}
}
