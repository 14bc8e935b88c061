package domain

import (
	"context"
	"time"
)

// JournalEntryType categorizes a journal record.
type JournalEntryType string

const (
	JournalAttach  JournalEntryType = "attach"
	JournalDestroy JournalEntryType = "destroy"
)

// JournalEntry is one record in the attachment journal: an instance was
// attached to a node, or a node was destroyed and purged.
type JournalEntry struct {
	Type      JournalEntryType `json:"type"`
	NodeID    string           `json:"node_id"`
	TypeName  string           `json:"type_name,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// AttachEvent is emitted when a new instance is constructed and registered.
// Memoized hits do not emit it.
type AttachEvent struct {
	NodeID     string
	TypeName   string
	Capability Capability
}

// DetachEvent is emitted when a node's registry entry is purged.
type DetachEvent struct {
	NodeID    string
	Instances int
}

// DestroyEvent is emitted by the teardown pipeline after a removed node's
// subscriptions are canceled and its registry entry purged.
type DestroyEvent struct {
	NodeID        string
	Subscriptions int
}

// LifecycleHooks defines callbacks for engine observability. All hooks are
// optional and run synchronously on the turn that produced the event.
type LifecycleHooks struct {
	OnAttach  func(context.Context, *AttachEvent)
	OnDetach  func(context.Context, *DetachEvent)
	OnDestroy func(context.Context, *DestroyEvent)
}
