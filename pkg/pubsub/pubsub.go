package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the analyzer
const (
	TopicAnalysisStatus = "analysis_status"
	TopicCoupling       = "coupling"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`            // Subscription topic (e.g., "analysis_status")
	RunID   string          `json:"run_id,omitempty"` // Analysis run that produced the event
	Type    string          `json:"type"`             // Event type (e.g., "loading", "ready", "error")
	Data    json.RawMessage `json:"data"`             // Event payload
	Version int             `json:"version"`          // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event of the given analysis run to all subscribers of a topic
	Publish(topic, runID, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// AnalysisStatus represents the state of an analysis run
type AnalysisStatus struct {
	RunID   string `json:"run_id"`
	State   string `json:"state"`   // loading, call_graph, coupling, writing, ready, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
}

// CouplingData announces a new coupling table
type CouplingData struct {
	RunID    string `json:"run_id"`
	Types    int    `json:"types"`
	Pairs    int    `json:"pairs"`    // Non-zero couplings
	Nodes    int    `json:"nodes"`    // Call graph nodes
	Links    int    `json:"links"`    // Call graph links
	Complete bool   `json:"complete"` // True when all data is loaded
}
