// Package render delivers tool invocation events to logs or a terminal.
package render

import "resdb-mcp/internal/events"

// Renderer receives every event of every invocation. Emit may be called from
// concurrent invocations and must not block on slow outputs.
type Renderer interface {
	Emit(events.Event)
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(events.Event) {}

func (Nop) Close() error { return nil }
