package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action tells the export worker what happened to a sheet.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// SheetChangedMessage carries only the sheet id; the worker reads the
// current sheet from the database.
type SheetChangedMessage struct {
	SheetID   string    `json:"sheet_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSheetChangedMessage(sheetID string, action Action) *SheetChangedMessage {
	return &SheetChangedMessage{
		SheetID:   sheetID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *SheetChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SheetChangedMessageFromJSON decodes and validates a message body.
func SheetChangedMessageFromJSON(data []byte) (*SheetChangedMessage, error) {
	var msg SheetChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.SheetID == "" {
		return nil, fmt.Errorf("message without sheet_id")
	}
	switch msg.Action {
	case ActionUpsert, ActionDelete:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
