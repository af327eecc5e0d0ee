package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pitabwire/util"
	"gopkg.in/yaml.v3"
)

// File extensions the loader reads.
const (
	ExtDialog = ".dialog"
	ExtYAML   = ".yaml"
	ExtYML    = ".yml"
)

// Loader loads and optionally hot-reloads dialog documents from a directory.
type Loader struct {
	dir string

	mu      sync.RWMutex
	dialogs map[string]*Dialog
}

// NewLoader creates a new dialog loader for the given directory.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:     dir,
		dialogs: make(map[string]*Dialog),
	}
}

// Dir returns the watched directory.
func (l *Loader) Dir() string {
	return l.dir
}

// LoadAll loads every dialog file in the configured directory. On error the
// previously loaded set is kept.
func (l *Loader) LoadAll() (map[string]*Dialog, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read dialog dir %q: %w", l.dir, err)
	}

	result := make(map[string]*Dialog)
	for _, entry := range entries {
		if entry.IsDir() || !isDialogFile(entry.Name()) {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		d, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", path, err)
		}
		if prev, dup := result[d.Name]; dup {
			return nil, fmt.Errorf("dialog %q defined by both %q and %q", d.Name, prev.Path, path)
		}
		result[d.Name] = d
	}

	l.mu.Lock()
	l.dialogs = result
	l.mu.Unlock()

	return result, nil
}

// Get returns a loaded dialog by name.
func (l *Loader) Get(name string) (*Dialog, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	d, ok := l.dialogs[name]
	return d, ok
}

// All returns all loaded dialogs.
func (l *Loader) All() map[string]*Dialog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make(map[string]*Dialog, len(l.dialogs))
	for k, v := range l.dialogs {
		result[k] = v
	}
	return result
}

// Names returns the loaded dialog names, sorted.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.dialogs))
	for name := range l.dialogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadFile(path string) (*Dialog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	root, err := decode(path, data)
	if err != nil {
		return nil, err
	}

	d := &Dialog{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path: path,
		Root: root,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// decode parses a dialog document. YAML documents are normalised through JSON
// so both formats produce the same value types.
func decode(path string, data []byte) (map[string]any, error) {
	var root map[string]any
	if filepath.Ext(path) == ExtDialog {
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		return root, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalise YAML: %w", err)
	}
	if err := json.Unmarshal(b, &root); err != nil {
		return nil, fmt.Errorf("normalise YAML: %w", err)
	}
	return root, nil
}

func isDialogFile(name string) bool {
	switch filepath.Ext(name) {
	case ExtDialog, ExtYAML, ExtYML:
		return true
	}
	return false
}

// WatchAndReload watches the dialog directory and reloads on change, calling
// onReload with the new dialog names after each successful reload. It blocks
// until ctx is done.
func (l *Loader) WatchAndReload(ctx context.Context, onReload func(names []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", l.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDialogFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if _, err := l.LoadAll(); err != nil {
				util.Log(ctx).WithError(err).Error("dialog reload failed")
				continue
			}
			if onReload != nil {
				onReload(l.Names())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
