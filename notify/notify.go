// Package notify delivers composed booking summaries to chat and webhook
// endpoints. Delivery failures are reported as a Result, never as an error.
package notify

import (
	"context"
	"strings"
)

// Notifier sends a single text message.
type Notifier interface {
	Notify(ctx context.Context, text string) Result
}

// Result is the outcome of one delivery attempt.
type Result struct {
	OK      bool
	Message string
}

// Multi fans a message out to every notifier in order.
type Multi []Notifier

// Notify reports OK when at least one notifier succeeded. An empty Multi is
// never OK.
func (m Multi) Notify(ctx context.Context, text string) Result {
	var (
		ok       bool
		messages []string
	)
	for _, n := range m {
		if n == nil {
			continue
		}
		r := n.Notify(ctx, text)
		ok = ok || r.OK
		if r.Message != "" {
			messages = append(messages, r.Message)
		}
	}
	if len(messages) == 0 && !ok {
		messages = append(messages, "no notifier configured")
	}
	return Result{OK: ok, Message: strings.Join(messages, "; ")}
}

// Nop drops every message. Used when notifications are disabled.
type Nop struct{}

func (Nop) Notify(context.Context, string) Result {
	return Result{Message: "notifications disabled"}
}
