package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	ActionCopied         EventType = "action.copied"
	ActionDeleted        EventType = "action.deleted"
	TemplateForked       EventType = "template.forked"
	TemplateForkFallback EventType = "template.fork_fallback"
	TemplateUpdated      EventType = "template.updated"
	TemplateDeleted      EventType = "template.deleted"
	DialogsReloaded      EventType = "dialogs.reloaded"
	SystemError          EventType = "error"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Source    string            `json:"source"`
	Container string            `json:"container"`
	Timestamp time.Time         `json:"timestamp"`
	Data      json.RawMessage   `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ActionCopiedData is the payload for action.copied events.
type ActionCopiedData struct {
	SourceID string `json:"source_id"`
	CopyID   string `json:"copy_id"`
	Type     string `json:"type"`
	Forked   int    `json:"forked"`
}

// ActionDeletedData is the payload for action.deleted events.
type ActionDeletedData struct {
	DesignerID string   `json:"designer_id"`
	Type       string   `json:"type"`
	Templates  []string `json:"templates,omitempty"`
}

// TemplateForkedData is the payload for template.forked and
// template.fork_fallback events.
type TemplateForkedData struct {
	Field  string `json:"field"`
	From   string `json:"from"`
	To     string `json:"to"`
	Result string `json:"result"`
}

// TemplateUpdatedData is the payload for template.updated events.
type TemplateUpdatedData struct {
	Name string `json:"name"`
}

// TemplateDeletedData is the payload for template.deleted events.
type TemplateDeletedData struct {
	Names []string `json:"names"`
}

// DialogsReloadedData is the payload for dialogs.reloaded events.
type DialogsReloadedData struct {
	Dir     string   `json:"dir"`
	Dialogs []string `json:"dialogs"`
}

// ErrorData is the payload for error events.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
