package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	em := NewEventManager(nil)
	got := make(chan Event, 2)
	em.Subscribe(StickyCreated, func(e Event) { got <- e })
	em.Subscribe(StickyDeleted, func(e Event) { t.Error("unexpected delivery") })

	em.Publish(Event{Type: StickyCreated, Data: "sticky_1"})

	select {
	case e := <-got:
		assert.Equal(t, "sticky_1", e.Data)
	case <-time.After(time.Second):
		require.Fail(t, "event not delivered")
	}
}

func TestPanickingHandlerIsContained(t *testing.T) {
	em := NewEventManager(nil)
	done := make(chan struct{})
	em.Subscribe(ThemeChanged, func(Event) { panic("boom") })
	em.SubscribeMany(func(Event) { close(done) }, ThemeChanged)

	em.Publish(Event{Type: ThemeChanged})

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "second handler not called")
	}
}

func TestPublishKeepsOrderPerSubscriber(t *testing.T) {
	em := NewEventManager(nil)
	const n = 200
	got := make(chan Event, n)
	em.SubscribeMany(func(e Event) { got <- e }, StickyCreated, StickyDeleted)

	for i := 0; i < n; i++ {
		typ := StickyCreated
		if i%2 == 1 {
			typ = StickyDeleted
		}
		em.Publish(Event{Type: typ, Data: i})
	}

	for i := 0; i < n; i++ {
		select {
		case e := <-got:
			require.Equal(t, i, e.Data)
		case <-time.After(time.Second):
			require.Fail(t, "event not delivered", "index %d", i)
		}
	}
}

func TestEventTypeNames(t *testing.T) {
	assert.Equal(t, "thread_created", ThreadCreated.String())
	assert.Equal(t, "unknown", EventType(99).String())
	assert.False(t, ViewChanged.Structural())
	assert.True(t, StickyUpdated.Structural())
}
