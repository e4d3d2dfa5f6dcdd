package events

import (
	"context"
	"fmt"

	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
)

// Handler reacts to a committed event
type Handler interface {
	Name() string
	Handle(ctx context.Context, e Event) error
}

// Publisher is what services depend on to announce committed changes
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Dispatcher fans each event out to a fixed, ordered handler list.
// Handler failures are logged and never reach the publisher.
type Dispatcher struct {
	handlers []Handler
	logger   *logger.Logger
}

// NewDispatcher creates a dispatcher over handlers, invoked in order
func NewDispatcher(log *logger.Logger, handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers, logger: log}
}

// Publish delivers e to every handler
func (d *Dispatcher) Publish(ctx context.Context, e Event) {
	for _, h := range d.handlers {
		if err := d.safeHandle(ctx, h, e); err != nil {
			d.logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
				"event":   e.EventName(),
				"handler": h.Name(),
			}).Error("Event handler failed")
		}
	}
}

func (d *Dispatcher) safeHandle(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, e)
}

// Nop discards every event
type Nop struct{}

// Publish implements Publisher
func (Nop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory; used by tests.
type Recorder struct {
	Events []Event
}

// Publish implements Publisher
func (r *Recorder) Publish(_ context.Context, e Event) {
	r.Events = append(r.Events, e)
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	names := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		names = append(names, e.EventName())
	}
	return names
}
