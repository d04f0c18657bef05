package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	if err := q.Publish(ctx, Message{ID: "1", Type: "generate", Body: []byte(`{"a":1}`)}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	select {
	case msg := <-msgs:
		if msg.ID != "1" || msg.Type != "generate" || string(msg.Body) != `{"a":1}` {
			t.Fatalf("got=%+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
	}

	cancel()
	select {
	case _, ok := <-msgs:
		if ok {
			t.Fatalf("channel should be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatalf("consumer did not stop")
	}
}

func TestEncodeDecode(t *testing.T) {
	raw, err := encode(Message{ID: "j1", Type: "generate", Body: []byte(`{"kind":"quiz"}`)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg, err := decode(raw)
	if err != nil || msg.Type != "generate" || string(msg.Body) != `{"kind":"quiz"}` {
		t.Fatalf("decode: got=%+v err=%v", msg, err)
	}
	if _, err := decode("checkin|abc"); err == nil {
		t.Fatalf("non-JSON payload should be rejected")
	}
	if _, err := decode(`{"id":"x"}`); err == nil {
		t.Fatalf("message without type should be rejected")
	}
}
