// internal/form/process.go
//
// Formdesk – Forms subsystem: post-validation side effect.
//
// Context
//   Once a submission validates, the handler hands the clean data to a
//   Processor.  The stock DelayProcessor waits a fixed interval (standing in
//   for “send the message”) and then passes a notification to the outbound
//   dispatcher, which only logs it.  The wait honours ctx, so a client that
//   disconnects also abandons the work.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"time"

	"github.com/yanizio/formdesk/internal/message"
)

// Processor performs the side effect of an accepted submission.
type Processor interface {
	Process(ctx context.Context, formID string, data Data) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, formID string, data Data) error

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, formID string, data Data) error {
	return f(ctx, formID, data)
}

// DelayProcessor sleeps for a fixed delay, then dispatches a notification.
type DelayProcessor struct {
	delay time.Duration
	out   message.Dispatcher
}

// NewDelayProcessor returns a processor that waits delay before handing the
// data to out.  out may be nil.
func NewDelayProcessor(delay time.Duration, out message.Dispatcher) *DelayProcessor {
	return &DelayProcessor{delay: delay, out: out}
}

// Process implements Processor.
func (p *DelayProcessor) Process(ctx context.Context, formID string, data Data) error {
	if err := wait(ctx, p.delay); err != nil {
		return err
	}
	if p.out == nil {
		return nil
	}
	return p.out.Dispatch(ctx, message.Notification{
		Form:       formID,
		Data:       map[string]any(data),
		ReceivedAt: time.Now().UTC(),
	})
}

// wait blocks for d or until ctx ends, whichever comes first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
