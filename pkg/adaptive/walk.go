package adaptive

import (
	"sort"

	"github.com/voicetyped/composer/pkg/lg"
)

// VisitFunc is called once per node reached by Walk.
type VisitFunc func(node any)

type walkFunc func(action Action, visit VisitFunc)

var walkTable map[string]walkFunc

func init() {
	walkTable = map[string]walkFunc{
		TypeIfCondition:     walkActionLists,
		TypeSwitchCondition: walkSwitchCondition,
		TypeForeach:         walkActionLists,
		TypeForeachPage:     walkActionLists,
		TypeEditActions:     walkActionLists,
	}
}

// Walk visits action and, for registered container types, every nested
// action in pre-order. Strings (named dialog references) and unregistered
// types are visited without looking inside them.
func Walk(action any, visit VisitFunc) {
	if action == nil || visit == nil {
		return
	}
	a, ok := AsAction(action)
	if !ok {
		visit(action)
		return
	}
	fn, ok := walkTable[TypeOf(a)]
	if !ok {
		visit(a)
		return
	}
	fn(a, visit)
}

// WalkList walks each element of actions in order. Non-lists are ignored.
func WalkList(actions any, visit VisitFunc) {
	list, ok := asList(actions)
	if !ok {
		return
	}
	for _, item := range list {
		Walk(item, visit)
	}
}

func walkActionLists(action Action, visit VisitFunc) {
	visit(action)
	for _, field := range actionListFields[TypeOf(action)] {
		WalkList(action[field], visit)
	}
}

func walkSwitchCondition(action Action, visit VisitFunc) {
	visit(action)
	if cases, ok := asList(action["cases"]); ok {
		for _, item := range cases {
			if sc, ok := AsAction(item); ok {
				WalkList(sc["actions"], visit)
			}
		}
	}
	WalkList(action["default"], visit)
}

// CollectTemplateRefs returns the names of the LG templates referenced from the
// LG fields of every action reached by Walk, deduplicated in first-seen order.
func CollectTemplateRefs(action any) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(action, func(node any) {
		a, ok := AsAction(node)
		if !ok {
			return
		}
		for _, field := range lgFields[TypeOf(a)] {
			text, ok := a[field].(string)
			if !ok {
				continue
			}
			for _, ref := range lg.ExtractTemplateRefs(text) {
				if !seen[ref.Name] {
					seen[ref.Name] = true
					names = append(names, ref.Name)
				}
			}
		}
	})
	return names
}

// CollectTemplateRefsList is CollectTemplateRefs over an action list.
func CollectTemplateRefsList(actions any) []string {
	var names []string
	seen := make(map[string]bool)
	list, _ := asList(actions)
	for _, item := range list {
		for _, name := range CollectTemplateRefs(item) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// Gap is a field holding nested actions that copy and walk do not descend
// into, because the owning type or the field is missing from the tables.
type Gap struct {
	Type       string `json:"type"`
	DesignerID string `json:"designer_id,omitempty"`
	Field      string `json:"field"`
}

// FindUnregisteredComposites searches the whole JSON tree under root for Gaps.
func FindUnregisteredComposites(root any) []Gap {
	var gaps []Gap
	findGaps(root, &gaps)
	return gaps
}

func findGaps(node any, gaps *[]Gap) {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if t, ok := v[TypeKey].(string); ok && t != "" {
			known := traversedFields(t)
			for _, k := range keys {
				if known[k] || !holdsAction(v[k]) {
					continue
				}
				*gaps = append(*gaps, Gap{Type: t, DesignerID: DesignerID(v), Field: k})
			}
		}
		for _, k := range keys {
			findGaps(v[k], gaps)
		}
	case []any:
		for _, child := range v {
			findGaps(child, gaps)
		}
	}
}

func traversedFields(actionType string) map[string]bool {
	known := make(map[string]bool)
	for _, f := range actionListFields[actionType] {
		known[f] = true
	}
	if actionType == TypeSwitchCondition {
		known["cases"] = true
		known["default"] = true
	}
	return known
}

func holdsAction(v any) bool {
	list, ok := asList(v)
	if !ok {
		return false
	}
	for _, item := range list {
		if TypeOf(item) != "" {
			return true
		}
	}
	return false
}
