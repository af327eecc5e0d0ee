package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelopeSerialization(t *testing.T) {
	data := &ActionCopiedData{
		SourceID: "1234",
		CopyID:   "5678",
		Type:     "Microsoft.SendActivity",
		Forked:   1,
	}

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}

	env := Envelope{
		ID:        "test-id",
		Type:      ActionCopied,
		Source:    "composer",
		Container: "common",
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}

	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	var decoded Envelope
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if decoded.Type != ActionCopied {
		t.Errorf("type = %q, want %q", decoded.Type, ActionCopied)
	}
	if decoded.Container != "common" {
		t.Errorf("container = %q, want %q", decoded.Container, "common")
	}

	var payload ActionCopiedData
	if err := json.Unmarshal(decoded.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.CopyID != "5678" {
		t.Errorf("copy_id = %q, want %q", payload.CopyID, "5678")
	}
}

func TestEventTypeConstants(t *testing.T) {
	types := []EventType{
		ActionCopied, ActionDeleted,
		TemplateForked, TemplateForkFallback, TemplateUpdated, TemplateDeleted,
		DialogsReloaded, SystemError,
	}

	seen := make(map[EventType]bool)
	for _, et := range types {
		if et == "" {
			t.Error("empty event type constant")
		}
		if seen[et] {
			t.Errorf("duplicate event type: %q", et)
		}
		seen[et] = true
	}
}

func TestLocalOnlyPublisher(t *testing.T) {
	p := NewPublisher(nil, "composer", "")
	ch := p.Subscribe("test", 1)
	defer p.Unsubscribe("test")

	if err := p.Emit(t.Context(), TemplateForked, "common", TemplateForkedData{Field: "activity"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	select {
	case env := <-ch:
		if env.Type != TemplateForked || env.Source != "composer" || env.ID == "" {
			t.Errorf("envelope = %+v", env)
		}
	default:
		t.Fatal("subscriber received nothing")
	}

	// Full buffer drops rather than blocks.
	_ = p.Emit(t.Context(), TemplateForked, "common", nil)
	_ = p.Emit(t.Context(), TemplateForked, "common", nil)
}
