// Package notify delivers user-facing notifications about job application changes.
// Toasts collects transient messages for the current web request, Service forwards them
// to external destinations (email, slack, telegram, webhooks) and Digest sends a periodic
// per-user summary.
package notify

import (
	"context"
	"sync"
	"time"
)

// Level of a notification
type Level string

// notification levels
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient message about an operation outcome
type Notification struct {
	Level   Level     `json:"level"`
	Op      string    `json:"op"` // create, update, delete
	Message string    `json:"message"`
	User    string    `json:"-"` // email of the user who triggered it
	TS      time.Time `json:"-"`
}

// Toasts is a notification sink collecting messages into the box attached to request context.
// Notifications for a context without a box are dropped.
type Toasts struct{}

// Box holds toasts collected during a single request
type Box struct {
	mu    sync.Mutex
	items []Notification
}

type boxKey struct{}

// WithBox attaches a new toast box to the context
func WithBox(ctx context.Context) (context.Context, *Box) {
	b := &Box{}
	return context.WithValue(ctx, boxKey{}, b), b
}

// BoxFrom returns the toast box of the context, nil if none attached
func BoxFrom(ctx context.Context) *Box {
	b, _ := ctx.Value(boxKey{}).(*Box)
	return b
}

// Notify adds the notification to the request's box
func (Toasts) Notify(ctx context.Context, n Notification) {
	if b := BoxFrom(ctx); b != nil {
		b.add(n)
	}
}

// Drain returns collected notifications and empties the box
func (b *Box) Drain() []Notification {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	res := b.items
	b.items = nil
	return res
}

func (b *Box) add(n Notification) {
	b.mu.Lock()
	b.items = append(b.items, n)
	b.mu.Unlock()
}
