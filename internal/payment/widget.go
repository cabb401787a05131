package payment

import (
	"context"
	"sync"
)

// Widget opens the hosted checkout UI. handler receives the gateway's success
// callback, onDismiss fires when the customer closes the widget. At most one
// of them is called.
type Widget interface {
	Open(ctx context.Context, opts CheckoutOptions, handler func(Verification), onDismiss func()) error
	Close(orderID string)
}

type widgetSession struct {
	opts      CheckoutOptions
	handler   func(Verification)
	onDismiss func()
}

// HostedWidget keeps open checkout sessions keyed by order id. The browser
// reports back through Complete or Dismiss.
type HostedWidget struct {
	mu       sync.Mutex
	sessions map[string]*widgetSession
}

func NewHostedWidget() *HostedWidget {
	return &HostedWidget{sessions: make(map[string]*widgetSession)}
}

func (w *HostedWidget) Open(_ context.Context, opts CheckoutOptions, handler func(Verification), onDismiss func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sessions[opts.OrderID] = &widgetSession{opts: opts, handler: handler, onDismiss: onDismiss}
	return nil
}

// Options returns what an open session was started with.
func (w *HostedWidget) Options(orderID string) (CheckoutOptions, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sessions[orderID]
	if !ok {
		return CheckoutOptions{}, false
	}
	return s.opts, true
}

// Complete delivers the gateway callback to the session for orderID. The
// handler runs on the caller's goroutine.
func (w *HostedWidget) Complete(orderID string, resp Verification) error {
	s, ok := w.take(orderID)
	if !ok {
		return ErrSessionNotFound
	}
	s.handler(resp)
	return nil
}

func (w *HostedWidget) Dismiss(orderID string) error {
	s, ok := w.take(orderID)
	if !ok {
		return ErrSessionNotFound
	}
	s.onDismiss()
	return nil
}

func (w *HostedWidget) Close(orderID string) {
	w.take(orderID)
}

func (w *HostedWidget) take(orderID string) (*widgetSession, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sessions[orderID]
	if ok {
		delete(w.sessions, orderID)
	}
	return s, ok
}
