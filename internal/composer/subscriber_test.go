package composer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voicetyped/composer/pkg/dialog"
	"github.com/voicetyped/composer/pkg/events"
	"github.com/voicetyped/composer/pkg/templatestore"
)

type fakeCache struct{ invalidated []string }

func (f *fakeCache) Invalidate(id string) { f.invalidated = append(f.invalidated, id) }

func envelope(t *testing.T, et events.EventType, container string) []byte {
	t.Helper()
	b, err := json.Marshal(events.Envelope{ID: "e1", Type: et, Container: container, Data: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestSubscriberInvalidatesCache(t *testing.T) {
	cache := &fakeCache{}
	sub := &Subscriber{Service: NewService(templatestore.NewMemoryStore(), nil, nil), Cache: cache}

	for _, et := range []events.EventType{
		events.TemplateForked, events.ActionCopied, events.TemplateUpdated, events.TemplateDeleted,
	} {
		if err := sub.Handle(t.Context(), nil, envelope(t, et, "common")); err != nil {
			t.Fatalf("Handle(%s): %v", et, err)
		}
	}
	if len(cache.invalidated) != 3 {
		t.Errorf("invalidated = %v, want 3 entries", cache.invalidated)
	}

	if err := sub.Handle(t.Context(), nil, []byte("not json")); err == nil {
		t.Error("expected error for malformed message")
	}
}

func TestSubscriberReloadsDialogs(t *testing.T) {
	dir := t.TempDir()
	loader := dialog.NewLoader(dir)
	sub := &Subscriber{Service: NewService(templatestore.NewMemoryStore(), loader, nil)}

	if err := os.WriteFile(filepath.Join(dir, "main.dialog"), []byte(testDialog), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := sub.Handle(t.Context(), nil, envelope(t, events.DialogsReloaded, "")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := loader.Get("main"); ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("dialogs were not reloaded")
}
