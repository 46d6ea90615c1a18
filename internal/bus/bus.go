// Package bus provides an in-process broadcast signal bus. It backs the reply
// long-poll: a visitor request waits on its email topic and an admin reply
// wakes every waiter on that topic.
package bus

import (
	"context"
	"sync"
)

// A broadcasting signal bus keyed by topic. Emitting to a topic nobody waits
// on is a no-op; waiters register fresh for every signal.
type SignalBus[K comparable, T any] struct {
	channels map[K][]chan T
	closed   bool
	lock     sync.Mutex
}

func NewSignalBus[K comparable, T any]() *SignalBus[K, T] {
	return &SignalBus[K, T]{
		channels: make(map[K][]chan T),
	}
}

// Emit delivers message to every current waiter on topic and returns how
// many were woken.
func (s *SignalBus[K, T]) Emit(topic K, message T) int {
	channels := func() []chan T {
		s.lock.Lock()
		defer s.lock.Unlock()

		if channels, ok := s.channels[topic]; ok {
			delete(s.channels, topic)
			return channels
		}
		return nil
	}()

	woken := 0
	for _, channel := range channels {
		// channels are buffered so a waiter that is just giving up never
		// blocks the emitter.
		select {
		case channel <- message:
			woken++
		default:
		}
		close(channel)
	}
	return woken
}

// Wait blocks until a message is emitted on topic, the bus is closed, or
// ctx is done. The bool is true only when a message was received.
func (s *SignalBus[K, T]) Wait(ctx context.Context, topic K) (T, bool) {
	channel := make(chan T, 1)

	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		var zero T
		return zero, false
	}
	s.channels[topic] = append(s.channels[topic], channel)
	s.lock.Unlock()

	select {
	case value, ok := <-channel:
		return value, ok
	case <-ctx.Done():
		s.remove(topic, channel)
		var zero T
		return zero, false
	}
}

// Waiters returns the number of goroutines currently waiting on topic.
func (s *SignalBus[K, T]) Waiters(topic K) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.channels[topic])
}

// Close releases every waiter on every topic without a message. Waits
// started after Close return at once.
func (s *SignalBus[K, T]) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.closed = true
	for topic, channels := range s.channels {
		for _, channel := range channels {
			close(channel)
		}
		delete(s.channels, topic)
	}
}

func (s *SignalBus[K, T]) remove(topic K, channel chan T) {
	s.lock.Lock()
	defer s.lock.Unlock()

	channels := s.channels[topic]
	for i, c := range channels {
		if c == channel {
			channels = append(channels[:i], channels[i+1:]...)
			break
		}
	}
	if len(channels) == 0 {
		delete(s.channels, topic)
	} else {
		s.channels[topic] = channels
	}
}
