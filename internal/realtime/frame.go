package realtime

import "encoding/json"

const (
	EventJoin               = "conversation:join"
	EventLeave              = "conversation:leave"
	EventSend               = "message:send"
	EventMessageNew         = "message:new"
	EventConversationUpdate = "conversation:update"
	EventAck                = "ack"
	EventError              = "error"
)

// Frame is the JSON envelope exchanged on the socket in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   *int            `json:"ack,omitempty"`
}

// AckPayload answers a client frame that carried an ack id.
type AckPayload struct {
	OK      bool   `json:"ok"`
	Message any    `json:"message,omitempty"`
	Room    string `json:"room,omitempty"`
	Error   string `json:"error,omitempty"`
}

type errorPayload struct {
	Event string `json:"event,omitempty"`
	Error string `json:"error"`
}

// NewFrame marshals data into a server frame.
func NewFrame(event string, data any) (Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: raw}, nil
}

func ackFrame(id int, payload AckPayload) (Frame, error) {
	frame, err := NewFrame(EventAck, payload)
	if err != nil {
		return Frame{}, err
	}
	frame.Ack = &id
	return frame, nil
}
