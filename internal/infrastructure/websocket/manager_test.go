package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_RegisterAndUnregister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewManager()
	m.Start(ctx)

	first := NewClient("u1", nil)
	second := NewClient("u1", nil)
	other := NewClient("u2", nil)
	for _, c := range []*Client{first, second, other} {
		assert.True(t, m.register(c))
	}
	assert.Eventually(t, func() bool { return m.ClientCount() == 3 }, time.Second, 5*time.Millisecond)

	m.unregister(first)
	assert.Eventually(t, func() bool { return m.ClientCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, first.closed)
	assert.False(t, second.closed)
	assert.False(t, other.closed)
}

func TestManager_StopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager()
	m.Start(ctx)

	c := NewClient("u1", nil)
	assert.True(t, m.register(c))

	cancel()
	<-m.done

	assert.Equal(t, 0, m.ClientCount())
	assert.False(t, m.register(NewClient("u2", nil)))
	m.unregister(c)
}
