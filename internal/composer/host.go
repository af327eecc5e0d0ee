package composer

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/voicetyped/composer/pkg/adaptive"
	"github.com/voicetyped/composer/pkg/events"
	"github.com/voicetyped/composer/pkg/lg"
)

// Host is the adaptive.ExternalAPI for one copy into one LG container. It
// mints designer IDs with xid and forks composer-owned templates to
// bfd<field>_<newID>. A Host is not safe for concurrent copies.
type Host struct {
	container string
	forker    *lg.Forker
	emit      emitFunc
	newID     func() string

	forked int
}

type emitFunc func(ctx context.Context, et events.EventType, container string, data any)

var _ adaptive.ExternalAPI = (*Host)(nil)

// NewHost creates a host forking templates of container through forker.
func NewHost(container string, forker *lg.Forker, emit emitFunc) *Host {
	if emit == nil {
		emit = func(context.Context, events.EventType, string, any) {}
	}
	return &Host{
		container: container,
		forker:    forker,
		emit:      emit,
		newID:     func() string { return xid.New().String() },
	}
}

// Forked returns the number of templates forked so far.
func (h *Host) Forked() int {
	return h.forked
}

// GetDesignerID returns existing with a fresh id. Other designer keys such as
// the display name are kept.
func (h *Host) GetDesignerID(existing adaptive.DesignerData) adaptive.DesignerData {
	out := make(adaptive.DesignerData, len(existing)+1)
	for k, v := range existing {
		out[k] = v
	}
	out[adaptive.IDKey] = h.newID()
	return out
}

// CopyLgField forks the template behind from[field] for the copy.
func (h *Host) CopyLgField(ctx context.Context, fromID string, from adaptive.Action, toID string, _ adaptive.Action, field string) (string, error) {
	value, ok := from[field].(string)
	if !ok {
		return "", fmt.Errorf("lg field %q of %s is %T, not text", field, fromID, from[field])
	}

	newName := lg.MetaData{Type: field, DesignerID: toID}.String()
	result := h.forker.Fork(ctx, h.container, value, newName)
	if !h.forker.Owns(value) {
		return result, nil
	}

	data := events.TemplateForkedData{Field: field, From: value, To: newName, Result: result}
	if result == "["+newName+"]" {
		h.forked++
		h.emit(ctx, events.TemplateForked, h.container, data)
	} else {
		h.emit(ctx, events.TemplateForkFallback, h.container, data)
	}
	return result, nil
}

// CopyLuField gives the copy its own deep copy of the recognizer.
func (h *Host) CopyLuField(_ context.Context, _ string, from adaptive.Action, _ string, _ adaptive.Action, field string) (any, error) {
	return cloneValue(from[field]), nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
