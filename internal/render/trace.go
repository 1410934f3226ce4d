package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"resdb-mcp/internal/events"
)

// TraceRenderer prints a short human-readable line per event.
type TraceRenderer struct {
	w       io.Writer
	mu      sync.Mutex
	verbose bool
}

// NewTraceRenderer creates a renderer writing to w. Verbose adds inputs and
// result previews.
func NewTraceRenderer(w io.Writer, verbose bool) *TraceRenderer {
	return &TraceRenderer{w: w, verbose: verbose}
}

func (r *TraceRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch payload := event.Payload.(type) {
	case events.ToolCallStartedPayload:
		fmt.Fprintf(r.w, "tool: %s start [%s]\n", payload.ToolName, payload.RequestID)
		if r.verbose {
			fmt.Fprintf(r.w, "input: %s\n", payload.Input)
		}
	case events.FallbackPayload:
		fmt.Fprintf(r.w, "tool: %s %s failed, trying %s: %s\n", payload.ToolName, payload.From, payload.To, payload.Reason)
	case events.ToolCallFinishedPayload:
		status := "ok"
		if event.Type == events.ToolCallFailed {
			status = "err " + payload.ErrorKind
		}
		fmt.Fprintf(r.w, "tool: %s %s (%dms, %d bytes)\n", payload.ToolName, status, payload.DurationMs, payload.ByteCount)
		if r.verbose && payload.Preview != "" {
			fmt.Fprintln(r.w, "preview:")
			for _, line := range strings.Split(payload.Preview, "\n") {
				fmt.Fprintf(r.w, "  %s\n", line)
			}
		}
	}
}

func (r *TraceRenderer) Close() error {
	return nil
}
