package queue

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMessageRoundTrip(t *testing.T) {
	request, err := json.Marshal(map[string]string{"subject_name": "Acme Manufacturing"})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	msg := Message{
		JobID:      "job-1",
		RequestID:  "req-1",
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
		Request:    request,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.JobID != msg.JobID || decoded.RequestID != msg.RequestID || decoded.Version != msg.Version {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
	var req map[string]string
	if err := json.Unmarshal(decoded.Request, &req); err != nil {
		t.Fatalf("unmarshal embedded request: %v", err)
	}
	if req["subject_name"] != "Acme Manufacturing" {
		t.Fatalf("embedded request lost, got %+v", req)
	}
}

func TestDecodeMessageRejectsInvalidJSON(t *testing.T) {
	if _, err := DecodeMessage([]byte("{broken")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEncodeMessageOmitsEmptyRequest(t *testing.T) {
	payload, err := EncodeMessage(Message{JobID: "job-1", Version: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["request"]; ok {
		t.Fatal("empty request should be omitted from the payload")
	}
}
