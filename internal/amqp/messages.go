package amqp

import (
	"encoding/json"
	"time"
)

const (
	OpCreated = "created"
	OpDeleted = "deleted"
)

// TransactionEvent is the lightweight change notification published after a
// ledger write. It carries only the id and operation; the mirror worker
// fetches the full record from the store.
type TransactionEvent struct {
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(id int64, op string) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
