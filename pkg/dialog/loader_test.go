package dialog

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const mainDialog = `{
  "$type": "Microsoft.AdaptiveDialog",
  "$designer": {"id": "root"},
  "triggers": [
    {
      "$type": "Microsoft.OnBeginDialog",
      "actions": [
        {"$type": "Microsoft.SendActivity", "$designer": {"id": "send1"}, "activity": "[bfdactivity_send1]"},
        {"$type": "Microsoft.IfCondition", "$designer": {"id": "if1"},
         "actions": [{"$type": "Microsoft.TextInput", "$designer": {"id": "ask1"}, "prompt": "[bfdprompt_ask1]"}]}
      ]
    }
  ]
}`

const yamlDialog = `
$type: Microsoft.AdaptiveDialog
triggers:
  - $type: Microsoft.OnIntent
    intent: Help
    actions:
      - $type: Microsoft.SendActivity
        $designer:
          id: help1
        activity: "[bfdactivity_help1]"
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoaderLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.dialog", mainDialog)
	writeFile(t, dir, "help.yaml", yamlDialog)
	writeFile(t, dir, "readme.md", "ignored")

	loader := NewLoader(dir)
	dialogs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(dialogs) != 2 {
		t.Fatalf("loaded %d dialogs, want 2", len(dialogs))
	}
	if got := loader.Names(); !reflect.DeepEqual(got, []string{"help", "main"}) {
		t.Errorf("Names = %v", got)
	}

	main, ok := loader.Get("main")
	if !ok {
		t.Fatal("dialog 'main' not found")
	}
	if n := len(main.Triggers()); n != 1 {
		t.Errorf("triggers = %d, want 1", n)
	}
	if n := main.ActionCount(); n != 3 {
		t.Errorf("ActionCount = %d, want 3", n)
	}

	ask, ok := main.FindAction("ask1")
	if !ok {
		t.Fatal("nested action ask1 not found")
	}
	if ask["prompt"] != "[bfdprompt_ask1]" {
		t.Errorf("prompt = %v", ask["prompt"])
	}
	if _, ok := main.FindAction("missing"); ok {
		t.Error("found action that does not exist")
	}

	help, _ := loader.Get("help")
	a, ok := help.FindAction("help1")
	if !ok {
		t.Fatal("yaml action help1 not found")
	}
	if a["activity"] != "[bfdactivity_help1]" {
		t.Errorf("activity = %v", a["activity"])
	}
	if _, isMap := a["$designer"].(map[string]any); !isMap {
		t.Errorf("yaml $designer decoded as %T", a["$designer"])
	}
}

func TestLoaderRejectsInvalidDialogs(t *testing.T) {
	cases := map[string]struct{ name, content string }{
		"bad json":      {"a.dialog", `{"$type":`},
		"wrong root":    {"a.dialog", `{"$type": "Microsoft.SendActivity"}`},
		"triggers type": {"a.yml", "$type: Microsoft.AdaptiveDialog\ntriggers: nope\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tc.name, tc.content)
			if _, err := NewLoader(dir).LoadAll(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoaderKeepsPreviousSetOnError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.dialog", mainDialog)
	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	writeFile(t, dir, "broken.dialog", "{")
	if _, err := loader.LoadAll(); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := loader.Get("main"); !ok {
		t.Error("previous dialogs dropped after failed reload")
	}
}

func TestLoaderWatchAndReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.dialog", mainDialog)
	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	reloaded := make(chan []string, 8)
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(t.Context())
	go func() { done <- loader.WatchAndReload(ctx, func(names []string) { reloaded <- names }) }()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "help.yaml", yamlDialog)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case names := <-reloaded:
			if len(names) == 2 {
				cancel()
				if err := <-done; err != nil {
					t.Errorf("WatchAndReload: %v", err)
				}
				return
			}
		case <-deadline:
			cancel()
			t.Fatal("no reload observed")
		}
	}
}
