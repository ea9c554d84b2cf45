package event

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/storefront/backend/internal/domain/shared"
)

// WildcardEventType subscribes a handler to every event type.
const WildcardEventType = "*"

type handlerTable map[string][]shared.EventHandler

// subscriptions maps event types to handlers. Writers copy the table, so a
// slice returned by handlersFor is never mutated and Publish runs handlers
// without holding a lock. Handlers are compared by identity.
type subscriptions struct {
	mu    sync.Mutex
	table atomic.Pointer[handlerTable]
}

func newSubscriptions() *subscriptions {
	s := &subscriptions{}
	s.table.Store(&handlerTable{})
	return s
}

// add subscribes handler to eventTypes, or to every type when none are given.
// Adding the same handler to a type twice keeps a single entry, so an order
// event is never delivered to one handler more than once.
func (s *subscriptions) add(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = []string{WildcardEventType}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyTable()
	for _, eventType := range eventTypes {
		if slices.Contains(next[eventType], handler) {
			continue
		}
		next[eventType] = append(slices.Clone(next[eventType]), handler)
	}
	s.table.Store(&next)
}

// remove drops handler from every event type it was subscribed to
func (s *subscriptions) remove(handler shared.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyTable()
	for eventType, handlers := range next {
		kept := slices.DeleteFunc(slices.Clone(handlers), func(h shared.EventHandler) bool {
			return h == handler
		})
		if len(kept) == 0 {
			delete(next, eventType)
			continue
		}
		next[eventType] = kept
	}
	s.table.Store(&next)
}

// handlersFor returns the type-specific handlers followed by the wildcard ones
func (s *subscriptions) handlersFor(eventType string) []shared.EventHandler {
	table := *s.table.Load()
	specific, wildcard := table[eventType], table[WildcardEventType]
	if eventType == WildcardEventType || len(wildcard) == 0 {
		return specific
	}
	if len(specific) == 0 {
		return wildcard
	}
	return append(slices.Clone(specific), wildcard...)
}

// eventTypes lists the subscribed types in sorted order
func (s *subscriptions) eventTypes() []string {
	table := *s.table.Load()
	types := make([]string, 0, len(table))
	for eventType := range table {
		types = append(types, eventType)
	}
	slices.Sort(types)
	return types
}

func (s *subscriptions) copyTable() handlerTable {
	current := *s.table.Load()
	next := make(handlerTable, len(current))
	for eventType, handlers := range current {
		next[eventType] = handlers
	}
	return next
}
