// Package reporter forwards blocked-action records to the background
// collaborator. Delivery is best effort and never fails the caller.
package reporter

import (
	"sync/atomic"

	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/domain"
)

// Sender delivers one message to the background collaborator.
type Sender interface {
	Send(msg domain.Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(msg domain.Message) error

func (f SenderFunc) Send(msg domain.Message) error { return f(msg) }

// Reporter counts blocked actions for one page and emits an updateBadge
// message for each.
type Reporter struct {
	sender Sender
	logger log.Logger
	count  atomic.Int64
}

// New returns a Reporter. A nil sender drops every record.
func New(sender Sender, logger log.Logger) *Reporter {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Reporter{sender: sender, logger: logger}
}

// Report records one blocked action. Send errors and panics are swallowed.
func (r *Reporter) Report(category, detail string) {
	n := r.count.Add(1)
	a := domain.BlockedAction{Category: category, Detail: detail}
	r.logger.Debug(map[string]any{"category": category, "detail": detail, "count": n}, "action_blocked")
	if r.sender == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Debug(map[string]any{"panic": p}, "report_send_panicked")
		}
	}()
	if err := r.sender.Send(domain.BadgeMessage(int(n), a)); err != nil {
		r.logger.Debug(map[string]any{"error": err}, "report_send_failed")
	}
}

// Count returns the number of actions reported so far.
func (r *Reporter) Count() int { return int(r.count.Load()) }
