// Package messaging carries one-way messages from page engines to the
// background collaborator. Senders never block: a full or stopped bus drops
// the message and reports why.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/domain"
	"github.com/haukened/popguard/internal/guard/services/reporter"
)

var (
	ErrBusFull    = errors.New("message bus full")
	ErrBusStopped = errors.New("message bus stopped")
)

// DefaultBufferSize is used when NewBus is given a non-positive size.
const DefaultBufferSize = 256

// MessageHandler receives every message delivered by the bus.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg domain.Message) domain.Response
}

// HandlerFunc adapts a function to MessageHandler.
type HandlerFunc func(ctx context.Context, msg domain.Message) domain.Response

func (f HandlerFunc) HandleMessage(ctx context.Context, msg domain.Message) domain.Response {
	return f(ctx, msg)
}

// Bus is a buffered in-process message channel with a single consumer loop.
type Bus struct {
	queue  chan domain.Message
	logger log.Logger

	mu      sync.Mutex
	running bool
	stopped atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	dropped atomic.Uint64
}

func NewBus(size int, logger log.Logger) *Bus {
	if size <= 0 {
		size = DefaultBufferSize
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Bus{
		queue:  make(chan domain.Message, size),
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Send enqueues msg without blocking.
func (b *Bus) Send(msg domain.Message) error {
	if b.stopped.Load() {
		b.dropped.Add(1)
		return ErrBusStopped
	}
	select {
	case b.queue <- msg:
		return nil
	default:
		b.dropped.Add(1)
		return ErrBusFull
	}
}

// SenderFor returns a Sender that stamps every message with tab.
func (b *Bus) SenderFor(tab string) reporter.Sender {
	return reporter.SenderFunc(func(msg domain.Message) error {
		msg.Tab = tab
		return b.Send(msg)
	})
}

// Dropped returns how many messages were refused.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Start runs the delivery loop until ctx is done or Stop is called.
func (b *Bus) Start(ctx context.Context, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return fmt.Errorf("message bus already running")
	}
	if b.stopped.Load() {
		return ErrBusStopped
	}
	b.running = true

	b.logger.Info(map[string]any{"buffer": cap(b.queue)}, "Message bus started")
	go b.deliverLoop(ctx, handler)
	return nil
}

// Stop ends the delivery loop and waits for the in-flight message. Messages
// still queued are discarded.
func (b *Bus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.stopped.CompareAndSwap(false, true) {
		return
	}
	close(b.stopCh)
	if b.running {
		<-b.doneCh
		b.running = false
	}
	b.logger.Info(map[string]any{"dropped": b.dropped.Load(), "discarded": len(b.queue)}, "Message bus stopped")
}

func (b *Bus) deliverLoop(ctx context.Context, handler MessageHandler) {
	defer close(b.doneCh)
	for {
		select {
		case <-ctx.Done():
			b.logger.Debug(nil, "bus_stopping_context_done")
			return
		case <-b.stopCh:
			b.logger.Debug(nil, "bus_stopping_stop_signal")
			return
		case msg := <-b.queue:
			b.deliver(ctx, handler, msg)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, handler MessageHandler, msg domain.Message) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error(map[string]any{"action": msg.Action, "panic": p}, "Message handler panicked")
		}
	}()
	resp := handler.HandleMessage(ctx, msg)
	if resp.Error != "" {
		b.logger.Warn(map[string]any{"action": msg.Action, "tab": msg.Tab, "error": resp.Error}, "Message handler failed")
	}
}
