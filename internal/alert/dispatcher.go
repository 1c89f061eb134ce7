package alert

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/observability"
)

// Subscriber is invoked once per dispatched alert. Subscribers run after the
// channel fan-out, in registration order, on the dispatching goroutine.
type Subscriber func(a *domain.SellAlert)

// Dispatcher fans one alert out to every configured channel and every
// registered subscriber. A channel's failure or panic is logged and does not
// affect the others; by the time Dispatch returns, every channel has been
// attempted once. No retries: alerts are notifications, not transactions.
type Dispatcher struct {
	channels    []Channel
	sendTimeout time.Duration
	logger      zerolog.Logger

	mu          sync.Mutex
	subscribers map[int]Subscriber
	nextID      int
}

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(channels []Channel, sendTimeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		channels:    channels,
		sendTimeout: sendTimeout,
		subscribers: make(map[int]Subscriber),
		logger:      logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Subscribe registers a listener for every future alert and returns its
// unsubscribe function.
func (d *Dispatcher) Subscribe(fn Subscriber) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.subscribers[id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subscribers, id)
	}
}

// Dispatch delivers the alert to all channels concurrently, then to all
// subscribers. Fire and forget for the caller.
func (d *Dispatcher) Dispatch(a *domain.SellAlert) {
	var wg sync.WaitGroup
	for _, ch := range d.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			d.send(ch, a)
		}(ch)
	}
	wg.Wait()

	for _, fn := range d.snapshotSubscribers() {
		fn(a)
	}
}

// send runs one channel delivery with a deadline, catching panics so a
// misbehaving channel cannot take down the pipeline.
func (d *Dispatcher) send(ch Channel, a *domain.SellAlert) {
	defer func() {
		if r := recover(); r != nil {
			observability.RecordChannelSendError(ch.Name())
			d.logger.Error().
				Str("channel", ch.Name()).
				Interface("panic", r).
				Msg("alert channel panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := ch.Send(ctx, a); err != nil {
		observability.RecordChannelSendError(ch.Name())
		d.logger.Error().
			Err(err).
			Str("channel", ch.Name()).
			Str("alert_id", a.AlertID).
			Msg("alert delivery failed")
	}
}

func (d *Dispatcher) snapshotSubscribers() []Subscriber {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Map iteration order is random; keep registration order for callers
	// that depend on it.
	out := make([]Subscriber, 0, len(d.subscribers))
	for id := 0; id < d.nextID; id++ {
		if fn, ok := d.subscribers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
