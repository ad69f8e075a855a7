// Package sse builds and rewrites text-event-stream frames. All JSON
// handling for the chat stream lives here; nothing else in the pipeline
// sniffs frame prefixes.
package sse

import (
	"encoding/json"
	"strings"
)

const dataPrefix = "data: "

// ContentFrame wraps one text delta as a data frame.
func ContentFrame(delta string) string {
	payload, _ := json.Marshal(map[string]string{"content": delta})
	return dataPrefix + string(payload) + "\n\n"
}

// MetadataFrame is the end-of-turn event. The conversation id is injected
// later by the orchestrator via InjectConversationID.
func MetadataFrame(durationMs int64) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"type":        "metadata",
		"duration_ms": durationMs,
	})
	return dataPrefix + string(payload) + "\n\n"
}

// ErrorFrame carries one upstream failure inside an otherwise-200 stream.
func ErrorFrame(err error) string {
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return dataPrefix + string(payload) + "\n\n"
}

// InjectConversationID rewrites a frame so that metadata events carry the
// conversation's id. Everything else is forwarded byte-identical: non-data
// lines, malformed JSON payloads, content and error events. A frame is never
// dropped and a bad payload never fails the stream.
func InjectConversationID(frame string, conversationID int64) string {
	if !strings.HasPrefix(frame, dataPrefix) {
		return frame
	}

	raw := strings.TrimSpace(frame[len(dataPrefix):])
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return frame
	}

	if t, _ := payload["type"].(string); t != "metadata" {
		return frame
	}

	payload["conversation_id"] = conversationID
	out, err := json.Marshal(payload)
	if err != nil {
		return frame
	}
	return dataPrefix + string(out) + "\n\n"
}
