// Package dialog loads adaptive dialog documents authored as JSON (.dialog)
// or YAML and locates actions inside them.
package dialog

import (
	"fmt"

	"github.com/voicetyped/composer/pkg/adaptive"
)

// TypeAdaptiveDialog is the root type of a dialog document.
const TypeAdaptiveDialog = "Microsoft.AdaptiveDialog"

// Dialog is one loaded dialog document. Root is the decoded JSON object and is
// shared with callers; treat it as read-only.
type Dialog struct {
	Name string
	Path string
	Root adaptive.Action
}

// Validate checks that the document is an adaptive dialog with a usable
// trigger list.
func (d *Dialog) Validate() error {
	if d.Root == nil {
		return fmt.Errorf("dialog %q: empty document", d.Name)
	}
	if t := adaptive.TypeOf(d.Root); t != TypeAdaptiveDialog {
		return fmt.Errorf("dialog %q: root type %q, want %q", d.Name, t, TypeAdaptiveDialog)
	}
	if v, ok := d.Root["triggers"]; ok {
		if _, isList := v.([]any); !isList {
			return fmt.Errorf("dialog %q: triggers must be a list", d.Name)
		}
	}
	return nil
}

// Triggers returns the dialog's trigger objects in document order.
func (d *Dialog) Triggers() []adaptive.Action {
	list, _ := d.Root["triggers"].([]any)
	out := make([]adaptive.Action, 0, len(list))
	for _, v := range list {
		if a, ok := adaptive.AsAction(v); ok {
			out = append(out, a)
		}
	}
	return out
}

// FindAction returns the first action, in trigger order then pre-order, whose
// designer ID is designerID.
func (d *Dialog) FindAction(designerID string) (adaptive.Action, bool) {
	if designerID == "" {
		return nil, false
	}
	var found adaptive.Action
	for _, trigger := range d.Triggers() {
		adaptive.WalkList(trigger["actions"], func(node any) {
			if found != nil || adaptive.DesignerID(node) != designerID {
				return
			}
			found, _ = adaptive.AsAction(node)
		})
		if found != nil {
			return found, true
		}
	}
	return nil, false
}

// ActionCount returns the number of action nodes reachable from the triggers.
func (d *Dialog) ActionCount() int {
	n := 0
	for _, trigger := range d.Triggers() {
		adaptive.WalkList(trigger["actions"], func(any) { n++ })
	}
	return n
}
