package queue

import "encoding/json"

// Message is the payload sent to downstream queue consumers. Request carries
// the full validated intake payload so a consumer can run the job even when
// the producer used an in-memory journal.
type Message struct {
	JobID      string          `json:"jobId"`
	RequestID  string          `json:"requestId"`
	EnqueuedAt string          `json:"enqueuedAt"`
	Version    int             `json:"version"`
	Request    json.RawMessage `json:"request,omitempty"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
