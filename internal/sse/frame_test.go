package sse

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodePayload(t *testing.T, frame string) map[string]interface{} {
	t.Helper()
	if !strings.HasPrefix(frame, "data: ") {
		t.Fatalf("Frame missing data prefix: %q", frame)
	}
	if !strings.HasSuffix(frame, "\n\n") {
		t.Fatalf("Frame missing terminator: %q", frame)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(frame[6:])), &payload); err != nil {
		t.Fatalf("Frame payload is not JSON: %v", err)
	}
	return payload
}

func TestContentFrame(t *testing.T) {
	payload := decodePayload(t, ContentFrame("Hel"))
	if payload["content"] != "Hel" {
		t.Errorf("Expected content 'Hel', got %v", payload["content"])
	}
}

func TestErrorFrame(t *testing.T) {
	payload := decodePayload(t, ErrorFrame(errors.New("upstream unavailable")))
	if payload["error"] != "upstream unavailable" {
		t.Errorf("Expected error message, got %v", payload["error"])
	}
}

func TestInjectConversationID_Metadata(t *testing.T) {
	frame := MetadataFrame(150)
	rewritten := InjectConversationID(frame, 7)

	payload := decodePayload(t, rewritten)
	if payload["type"] != "metadata" {
		t.Errorf("Expected metadata type, got %v", payload["type"])
	}
	if payload["duration_ms"] != float64(150) {
		t.Errorf("Expected duration_ms 150 preserved, got %v", payload["duration_ms"])
	}
	if payload["conversation_id"] != float64(7) {
		t.Errorf("Expected conversation_id 7, got %v", payload["conversation_id"])
	}
}

func TestInjectConversationID_PreservesExtraFields(t *testing.T) {
	frame := "data: {\"type\":\"metadata\",\"duration_ms\":42,\"model\":\"qwen\"}\n\n"
	payload := decodePayload(t, InjectConversationID(frame, 3))

	if payload["model"] != "qwen" {
		t.Errorf("Expected extra field preserved, got %v", payload["model"])
	}
	if payload["conversation_id"] != float64(3) {
		t.Errorf("Expected conversation_id 3, got %v", payload["conversation_id"])
	}
}

func TestInjectConversationID_Passthrough(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"content event", ContentFrame("lo")},
		{"error event", ErrorFrame(errors.New("boom"))},
		{"malformed json", "data: {not json}\n\n"},
		{"comment line", ": keep-alive\n\n"},
		{"event name line", "event: ping\n\n"},
		{"empty frame", "\n\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := InjectConversationID(tc.frame, 99)
			if got != tc.frame {
				t.Errorf("Expected byte-identical passthrough, got %q from %q", got, tc.frame)
			}
		})
	}
}
