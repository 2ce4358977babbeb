package workflow

import "context"

type EventType string

const (
	EventStep   EventType = "step"
	EventResult EventType = "result"
	EventError  EventType = "error"
)

// Event is one item of an incremental run. Step events carry exactly one new
// progress message; the stream ends with a single result or error event.
type Event struct {
	Type    EventType
	Message string
	Node    Node
	Result  *State
}

// Stream runs question in a goroutine and delivers its progress log as it
// grows. Each step is delivered once, in order. Once ctx is done no further
// events are sent and the channel is closed after the in-flight node returns.
func (e *Engine) Stream(ctx context.Context, question string) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)

		send := func(ev Event) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		run, err := e.Start(ctx, question)
		if err != nil {
			send(Event{Type: EventError, Message: err.Error()})
			return
		}

		delivered := 0
		for {
			if ctx.Err() != nil {
				return
			}

			tr, ok, err := run.Next(ctx)
			if err != nil {
				send(Event{Type: EventError, Message: err.Error()})
				return
			}
			if !ok {
				final := run.State()
				send(Event{Type: EventResult, Result: &final})
				return
			}

			for _, msg := range tr.State.Steps[delivered:] {
				if !send(Event{Type: EventStep, Message: msg, Node: tr.Node}) {
					return
				}
			}
			delivered = len(tr.State.Steps)
		}
	}()

	return out
}
