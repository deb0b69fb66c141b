package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	n := New(Config{})
	defer n.Close()

	sub := n.Subscribe()
	require.NotNil(t, sub)

	n.Publish(Notice{Kind: KindEffectFired, EventType: "sparks"})

	select {
	case notice := <-sub.C():
		assert.Equal(t, KindEffectFired, notice.Kind)
		assert.Equal(t, "sparks", notice.EventType)
		assert.False(t, notice.Time.IsZero(), "publish stamps the time")
	case <-time.After(time.Second):
		t.Fatal("notice not delivered")
	}
}

func TestKindFilter(t *testing.T) {
	n := New(Config{})
	defer n.Close()

	sub := n.Subscribe(KindComponentDisabled)

	n.Publish(Notice{Kind: KindEffectFired})
	n.Publish(Notice{Kind: KindComponentDisabled, Component: "fx"})

	select {
	case notice := <-sub.C():
		assert.Equal(t, KindComponentDisabled, notice.Kind)
		assert.Equal(t, "fx", notice.Component)
	case <-time.After(time.Second):
		t.Fatal("notice not delivered")
	}

	select {
	case notice := <-sub.C():
		t.Fatalf("unexpected notice: %+v", notice)
	default:
	}
}

func TestFullBufferDrops(t *testing.T) {
	dropped := 0
	n := New(Config{
		BufferSize: 1,
		OnDrop:     func(Notice) { dropped++ },
	})
	defer n.Close()

	n.Subscribe() // never drained

	n.Publish(Notice{Kind: KindEffectFired})
	n.Publish(Notice{Kind: KindEffectFired})

	assert.Equal(t, 1, dropped, "publish must not block on a slow subscriber")
}

func TestUnsubscribe(t *testing.T) {
	n := New(Config{})
	defer n.Close()

	sub := n.Subscribe()
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	_, open := <-sub.C()
	assert.False(t, open, "channel closes on unsubscribe")

	// Publishing after unsubscribe must not panic.
	n.Publish(Notice{Kind: KindSessionReset})
}

func TestClose(t *testing.T) {
	n := New(Config{})
	sub := n.Subscribe()

	n.Close()
	n.Close() // idempotent

	_, open := <-sub.C()
	assert.False(t, open)

	assert.Nil(t, n.Subscribe(), "closed notifier refuses subscriptions")
	n.Publish(Notice{Kind: KindEffectFired}) // no-op, no panic
}
