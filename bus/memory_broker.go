package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemBroker is an in-process Broker: publishing fans a copy of the
// envelope out to every currently-subscribed channel for that topic.
// Unlike RedisBroker it has no durability or pending-entries redelivery —
// it exists for tests and single-process deployments that don't need a
// Redis dependency, the same role the teacher's in-memory test doubles
// play for queue.Client.
type MemBroker struct {
	mu       sync.Mutex
	subs     map[string][]chan Delivery
	closedCh map[chan Delivery]bool
	closed   bool
}

// NewMemBroker constructs an in-process Broker.
func NewMemBroker() *MemBroker {
	return &MemBroker{subs: make(map[string][]chan Delivery), closedCh: make(map[chan Delivery]bool)}
}

// closeChanLocked closes ch at most once. Callers must hold b.mu.
func (b *MemBroker) closeChanLocked(ch chan Delivery) {
	if b.closedCh[ch] {
		return
	}
	b.closedCh[ch] = true
	close(ch)
}

func (b *MemBroker) Publish(_ context.Context, topic, correlationID string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("bus: marshal payload: %w", err)
	}
	env := EventEnvelope{
		ID:            "evt_" + uuid.New().String(),
		Topic:         topic,
		CorrelationID: correlationID,
		Payload:       data,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", ErrBrokerClosed
	}
	for _, ch := range b.subs[topic] {
		d := Delivery{
			Envelope: env,
			Ack:      func(context.Context) error { return nil },
			Nack:     func(context.Context) error { return nil },
		}
		select {
		case ch <- d:
		default:
		}
	}
	return env.ID, nil
}

func (b *MemBroker) Subscribe(ctx context.Context, topic, _ string) (<-chan Delivery, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBrokerClosed
	}
	ch := make(chan Delivery, 64)
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[topic]
		for i, c := range subs {
			if c == ch {
				b.subs[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.closeChanLocked(ch)
	}()
	return ch, nil
}

func (b *MemBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			b.closeChanLocked(ch)
		}
	}
	b.subs = make(map[string][]chan Delivery)
	return nil
}
