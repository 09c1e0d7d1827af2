package ws

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// Сценарий: хаб остановлен, его цикл больше не читает каналы. Поздняя
// регистрация, отписка и рассылка обязаны вернуться, а не зависнуть.
func TestHub_CallsReturnAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := NewHub(ctx) // Run не запускается: хаб уже остановлен

	client := &Client{projectID: uuid.New(), send: make(chan []byte, 1)}

	done := make(chan struct{})
	go func() {
		h.Register(client)
		h.Unregister(client)
		assert.NoError(t, h.BroadcastToProject(client.projectID, "change_order.updated", nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("вызовы хаба зависли после остановки")
	}
}

func TestHub_BroadcastReachesProjectSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)
	go h.Run()

	projectID := uuid.New()
	subscriber := &Client{projectID: projectID, send: make(chan []byte, 1)}
	other := &Client{projectID: uuid.New(), send: make(chan []byte, 1)}
	h.Register(subscriber)
	h.Register(other)

	assert.NoError(t, h.BroadcastToProject(projectID, "change_order.approved", map[string]any{"co_number": 3}))

	select {
	case raw := <-subscriber.send:
		assert.Contains(t, string(raw), "change_order.approved")
	case <-time.After(2 * time.Second):
		t.Fatal("подписчик проекта не получил событие")
	}

	select {
	case <-other.send:
		t.Fatal("событие ушло подписчику чужого проекта")
	default:
	}
}
