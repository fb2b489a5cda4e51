package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/coupling-analyzer/pkg/logging"
)

// ErrClosed is returned once the publisher has shut down
var ErrClosed = errors.New("publisher is closed")

// Replay selects what a new subscriber receives on connect
type Replay int

const (
	// ReplayNone sends only events published after subscribing
	ReplayNone Replay = iota
	// ReplayLatest sends the most recent event
	ReplayLatest
	// ReplayRun sends every event of the most recent run, in order
	ReplayRun
)

// DefaultRunLimit caps the events kept for one run under ReplayRun
const DefaultRunLimit = 32

// TopicConfig configures replay for a topic
type TopicConfig struct {
	Replay   Replay
	RunLimit int // Events kept per run for ReplayRun, 0 means DefaultRunLimit
}

// Topics returns the replay configuration used by the analyzer: status
// subscribers catch up on the current run, coupling subscribers get the
// last completed table.
func Topics() map[string]TopicConfig {
	return map[string]TopicConfig{
		TopicAnalysisStatus: {Replay: ReplayRun},
		TopicCoupling:       {Replay: ReplayLatest},
	}
}

// topic holds the live state of one topic
type topic struct {
	config  TopicConfig
	subs    map[*sseSubscription]struct{}
	version int
	runID   string  // Run the history belongs to
	history []Event // Replayable events of runID
}

func (t *topic) record(event Event) {
	switch t.config.Replay {
	case ReplayLatest:
		t.runID = event.RunID
		t.history = []Event{event}
	case ReplayRun:
		if event.RunID != t.runID {
			t.runID = event.RunID
			t.history = nil
		}
		t.history = append(t.history, event)
		if limit := t.limit(); len(t.history) > limit {
			t.history = t.history[len(t.history)-limit:]
		}
	}
}

func (t *topic) limit() int {
	if t.config.RunLimit > 0 {
		return t.config.RunLimit
	}
	return DefaultRunLimit
}

// SSEPublisher implements Publisher using Server-Sent Events
type SSEPublisher struct {
	mu     sync.RWMutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a publisher for the given topics
func NewSSEPublisher(topics map[string]TopicConfig) *SSEPublisher {
	p := &SSEPublisher{topics: make(map[string]*topic)}
	for name, config := range topics {
		p.topics[name] = &topic{config: config, subs: make(map[*sseSubscription]struct{})}
	}
	return p
}

// Has reports whether the topic is known
func (p *SSEPublisher) Has(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.topics[name]
	return ok
}

// Subscribe creates a new subscription and queues the replay for its topic
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	t, ok := p.topics[name]
	if !ok {
		return nil, fmt.Errorf("unknown topic %q", name)
	}

	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, t.limit()+16),
		publisher: p,
	}
	// Replay fits in the channel, and holding the lock keeps it ahead of new events
	for _, event := range t.history {
		sub.events <- event
	}
	t.subs[sub] = struct{}{}

	logging.Debug("subscribed", "topic", name, "run", t.runID,
		"replayed", len(t.history), "subscribers", len(t.subs))

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic
func (p *SSEPublisher) Publish(name, runID, eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	t, ok := p.topics[name]
	if !ok {
		return fmt.Errorf("unknown topic %q", name)
	}

	t.version++
	event := Event{
		Topic:   name,
		RunID:   runID,
		Type:    eventType,
		Data:    jsonData,
		Version: t.version,
	}
	t.record(event)

	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscription channel full, dropping event",
				"topic", name, "run", runID, "version", event.Version)
		}
	}

	return nil
}

// Close shuts down the publisher and all subscriptions
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		t.subs = make(map[*sseSubscription]struct{})
	}
	return nil
}

// Subscribers returns the number of live subscriptions to a topic
func (p *SSEPublisher) Subscribers(name string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if t, ok := p.topics[name]; ok {
		return len(t.subs)
	}
	return 0
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[sub.topic]; ok {
		delete(t.subs, sub)
	}
}

// sseSubscription implements Subscription
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher

	mu     sync.Mutex
	closed bool
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.publisher.unsubscribe(s)
	return nil
}

// WriteSSE writes an event as one SSE frame.
// Format: "id: N\ndata: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", event.Version, jsonData)
	return err
}
