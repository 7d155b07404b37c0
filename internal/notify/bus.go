// Package notify implements the in-process publish/subscribe bus used to
// tell connected sessions that a user's notes changed. Delivery is
// fire-and-forget and at-most-once: subscribers only see events published
// while they are subscribed, and slow subscribers drop events rather than
// block a publisher.
package notify

import (
	"fmt"
	"sync"

	"github.com/ilmarsk/notehub/internal/logger"
)

// Event is a single published message.
type Event struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

// Publisher is the write side of the bus. Repository components depend on
// this interface only; the bus itself is constructed once at startup and
// injected.
type Publisher interface {
	Publish(topic, payload string)
}

// NoteTopic returns the per-user topic for note change events.
func NoteTopic(userID uint) string {
	return fmt.Sprintf("note-update:%d", userID)
}

// NotePayload returns the payload carried by note change events. It is a
// hint only; subscribers re-query for current state.
func NotePayload(userID uint) string {
	return fmt.Sprintf("notes updated for user %d", userID)
}

type subscriber struct {
	id int
	ch chan Event
}

// Bus is an in-memory topic bus. The zero value is not usable; call New.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]subscriber
	nextID int
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{topics: make(map[string][]subscriber)}
}

// Publish delivers the event to every current subscriber of topic. A
// subscriber whose buffer is full misses the event; it must re-query
// anyway, so a dropped hint is harmless.
func (b *Bus) Publish(topic, payload string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	evt := Event{Topic: topic, Payload: payload}
	for _, sub := range b.topics[topic] {
		select {
		case sub.ch <- evt:
		default:
			logger.Warnf("notify: subscriber %d on %s is slow, dropping event", sub.id, topic)
		}
	}
}

// Subscribe registers a new subscriber on topic. The returned cancel
// function removes the subscription and closes the channel; it is safe to
// call once.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	b.nextID++
	sub := subscriber{id: b.nextID, ch: make(chan Event, 16)}
	b.topics[topic] = append(b.topics[topic], sub)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.topics[topic]
		for i, s := range subs {
			if s.id == sub.id {
				b.topics[topic] = append(subs[:i], subs[i+1:]...)
				close(s.ch)
				break
			}
		}
		if len(b.topics[topic]) == 0 {
			delete(b.topics, topic)
		}
	}
	return sub.ch, cancel
}
