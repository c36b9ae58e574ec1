package notify

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	FrameConnected = "connected"
	FramePing      = "ping"
)

// ControlFrame is a non-notification frame on a live stream.
type ControlFrame struct {
	Type   string `json:"type"`
	UserId int    `json:"userId,omitempty"`
}

func ConnectedFrame(userId int) ControlFrame {
	return ControlFrame{Type: FrameConnected, UserId: userId}
}

func PingFrame() ControlFrame {
	return ControlFrame{Type: FramePing}
}

// Event is the live form of a notification. Id is per recipient and is left
// empty on room broadcasts.
type Event struct {
	Id                  string          `json:"id,omitempty"`
	Type                Type            `json:"type"`
	Params              json.RawMessage `json:"params"`
	SourceUsername      string          `json:"source_username"`
	BudgetOwnerUsername string          `json:"budget_owner_username"`
	CreatedAt           time.Time       `json:"created_at"`
	SourceUserId        int             `json:"-"`
	BudgetOwnerId       int             `json:"-"`
}

// Recipient pairs a target user with the id of their persisted row.
type Recipient struct {
	UserId         int
	NotificationId string
}

// SSEFrame encodes v as one "data: <json>\n\n" frame.
func SSEFrame(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + 8)
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")

	return buf.Bytes(), nil
}
