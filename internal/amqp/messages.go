package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shop/internal/core"
)

// JournalEvent announces a new purchase journal entry. It carries only the
// entry id; the worker reads the full entry from the database.
type JournalEvent struct {
	EventID   string           `json:"event_id"`
	EntryID   int64            `json:"entry_id"`
	Kind      core.JournalKind `json:"kind"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewJournalEvent(entryID int64, kind core.JournalKind) *JournalEvent {
	return &JournalEvent{
		EventID:   uuid.NewString(),
		EntryID:   entryID,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

func (m *JournalEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// JournalEventFromJSON decodes and validates an event body.
func JournalEventFromJSON(data []byte) (*JournalEvent, error) {
	var msg JournalEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EntryID <= 0 {
		return nil, fmt.Errorf("invalid entry id: %d", msg.EntryID)
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("unsupported journal kind: %q", msg.Kind)
	}
	return &msg, nil
}
