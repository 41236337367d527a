package amqp

import (
	"testing"
	"time"
)

func TestLedgerSyncMessageJSON(t *testing.T) {
	msg := NewLedgerSyncMessage("report", "abc-123")
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := LedgerSyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Entity != "report" || got.ID != "abc-123" {
		t.Fatalf("got %+v", got)
	}
	if !got.Timestamp.Truncate(time.Millisecond).Equal(msg.Timestamp.Truncate(time.Millisecond)) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.Timestamp, msg.Timestamp)
	}
}

func TestLedgerSyncMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := LedgerSyncMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}
