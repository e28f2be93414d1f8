// Package notify delivers transaction-completion events emitted after
// every successful catalog mutation. Delivery is fire-and-forget:
// sink failures are logged at this boundary and never surface to the
// mutation that triggered them.
package notify

import (
	"context"
)

// Code identifies the kind of completed mutation.
type Code string

// Event codes, one per catalog mutation.
const (
	CodeAddGroup         Code = "addGroup"
	CodeUpdateGroup      Code = "updateGroup"
	CodeDeleteGroup      Code = "deleteGroup"
	CodeAddConfigFile    Code = "addConfigFile"
	CodeUpdateConfigFile Code = "updateConfigFile"
	CodeDeleteConfigFile Code = "deleteConfigFile"
	CodePush             Code = "push"
	CodeDeploy           Code = "deploy"
)

// Event describes one completed catalog mutation.
type Event struct {
	// Code is the kind of mutation.
	Code Code `json:"code"`

	// SubjectID is the id of the mutated group or file. The webhook
	// sink maps this to the wire key it needs; the struct's own tag
	// just names the field.
	SubjectID string `json:"subject_id"`

	// Payload carries the mutated entity's post-mutation fields.
	// Push and deploy events additionally carry "rev", and push with
	// deploy carries the target group list.
	Payload map[string]interface{} `json:"payload"`
}

// Sink receives transaction-completion events. Implementations must
// not block the caller on delivery and must not return errors for
// delivery failures they can handle themselves; a returned error is
// logged and discarded by the emitter.
type Sink interface {
	Notify(ctx context.Context, event Event) error
}

// Nop is a Sink that discards all events.
type Nop struct{}

// Notify discards the event.
func (Nop) Notify(ctx context.Context, event Event) error { return nil }

// Multi fans one event out to several sinks. Every sink sees every
// event; the first error is returned after all sinks ran.
type Multi []Sink

// Notify delivers the event to every sink.
func (m Multi) Notify(ctx context.Context, event Event) error {
	var first error
	for _, sink := range m {
		if err := sink.Notify(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, event Event) error

// Notify calls the function.
func (f Func) Notify(ctx context.Context, event Event) error { return f(ctx, event) }
