package amqp

import (
	"encoding/json"
	"time"
)

// LedgerSyncMessage asks the worker to push one entity to the ledger
// spreadsheet. It carries only the entity kind and ID; the worker fetches
// the current row from the database, so a stale message never overwrites
// newer data.
type LedgerSyncMessage struct {
	Entity    string    `json:"entity"` // "report" or "deposit"
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSyncMessage(entity, id string) *LedgerSyncMessage {
	return &LedgerSyncMessage{
		Entity:    entity,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *LedgerSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSyncMessageFromJSON(data []byte) (*LedgerSyncMessage, error) {
	var msg LedgerSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
