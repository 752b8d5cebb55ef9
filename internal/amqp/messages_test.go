package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionEvent(t *testing.T) {
	e := NewTransactionEvent(42, OpCreated)
	if e.ID != 42 || e.Op != OpCreated {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestTransactionEventJSON(t *testing.T) {
	e := &TransactionEvent{
		ID:        7,
		Op:        OpDeleted,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	parsed, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if parsed.ID != e.ID || parsed.Op != e.Op || !parsed.Timestamp.Equal(e.Timestamp) {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}

	if _, err := TransactionEventFromJSON([]byte(`{"id": "nope"}`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}
