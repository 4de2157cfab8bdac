// internal/message/message.go
//
// Formdesk – outbound notification stand-in.
//
// Context
//   An accepted submission would normally become an email or a ticket.
//   Delivery is out of scope, so the stock Dispatcher writes a structured log
//   line instead.  The summary is run through a strict bluemonday policy so
//   user input never reaches a log viewer as live markup.
//
//   Swap LogDispatcher for a queue publisher (Redis, NATS, SQS) when real
//   delivery lands; the form package only sees the Dispatcher interface.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Notification is one accepted submission ready for delivery.
type Notification struct {
	Form       string
	Data       map[string]any
	ReceivedAt time.Time
}

// Dispatcher hands a notification to the outbound channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// LogDispatcher logs each notification at info level.
type LogDispatcher struct {
	log *zap.SugaredLogger
}

// NewLogDispatcher returns a dispatcher writing to log.  A nil log uses the
// global zap logger.
func NewLogDispatcher(log *zap.SugaredLogger) *LogDispatcher {
	if log == nil {
		log = zap.S()
	}
	return &LogDispatcher{log: log}
}

// Dispatch implements Dispatcher.
func (d *LogDispatcher) Dispatch(_ context.Context, n Notification) error {
	d.log.Infow("notification dispatched",
		"form", n.Form,
		"fields", len(n.Data),
		"received_at", n.ReceivedAt.Format(time.RFC3339),
		"summary", Summary(n.Data),
	)
	return nil
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func strict() *bluemonday.Policy {
	policyOnce.Do(func() { policy = bluemonday.StrictPolicy() })
	return policy
}

// Summary renders data as sorted "key=value" pairs separated by "; ".  Tags
// are stripped from string values.
func Summary(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := strict()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var val string
		switch x := data[k].(type) {
		case string:
			val = p.Sanitize(x)
		default:
			val = fmt.Sprint(x)
		}
		parts = append(parts, k+"="+val)
	}
	return strings.Join(parts, "; ")
}
