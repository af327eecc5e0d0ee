package adaptive

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

type copyFunc func(ctx context.Context, action Action, api ExternalAPI) Action

// Field tables per action type. The copy and walk dispatch tables below are
// built from the same entries; a type that nests actions but is missing here
// is copied shallowly and never walked into.
var (
	actionListFields = map[string][]string{
		TypeIfCondition: {"actions", "elseActions"},
		TypeForeach:     {"actions"},
		TypeForeachPage: {"actions"},
		TypeEditActions: {"actions"},
	}

	inputPromptFields = []string{"prompt", "unrecognizedPrompt", "invalidPrompt", "defaultValueResponse"}
	inputLuFields     = []string{"recognizer"}

	lgFields = map[string][]string{
		TypeSendActivity:    {"activity"},
		TypeAttachmentInput: inputPromptFields,
		TypeChoiceInput:     inputPromptFields,
		TypeConfirmInput:    inputPromptFields,
		TypeDateTimeInput:   inputPromptFields,
		TypeNumberInput:     inputPromptFields,
		TypeTextInput:       inputPromptFields,
	}

	luFields = map[string][]string{
		TypeAttachmentInput: inputLuFields,
		TypeChoiceInput:     inputLuFields,
		TypeConfirmInput:    inputLuFields,
		TypeDateTimeInput:   inputLuFields,
		TypeNumberInput:     inputLuFields,
		TypeTextInput:       inputLuFields,
	}
)

var copyTable map[string]copyFunc

func init() {
	copyTable = map[string]copyFunc{
		TypeIfCondition:     copyIfCondition,
		TypeSwitchCondition: copySwitchCondition,
		TypeForeach:         copyForeach,
		TypeForeachPage:     copyForeach,
		TypeEditActions:     copyEditActions,
		TypeSendActivity:    copySendActivity,
		TypeAttachmentInput: copyInputDialog,
		TypeChoiceInput:     copyInputDialog,
		TypeConfirmInput:    copyInputDialog,
		TypeDateTimeInput:   copyInputDialog,
		TypeNumberInput:     copyInputDialog,
		TypeTextInput:       copyInputDialog,
	}
}

// RegisteredTypes returns the action types with a structural copier, sorted.
func RegisteredTypes() []string {
	types := make([]string, 0, len(copyTable))
	for t := range copyTable {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsRegistered reports whether actionType has a structural copier.
func IsRegistered(actionType string) bool {
	_, ok := copyTable[actionType]
	return ok
}

// CopyAction returns a copy of action in which every action node carries a
// designer ID minted by api and every LG field of a registered type points at
// content api forked.
//
// A nil api mints and forks nothing: the result is a structural clone that
// keeps every designer ID and field value, with designer data maps of its own.
//
// A string is returned unchanged. Anything else without a "$type" yields an
// empty action. Failures of api are absorbed field by field, so the result is
// always a usable, possibly partially forked, copy. The input is not modified.
func CopyAction(ctx context.Context, action any, api ExternalAPI) any {
	if s, ok := action.(string); ok {
		return s
	}
	a, ok := AsAction(action)
	if !ok {
		return Action{}
	}
	t, _ := a[TypeKey].(string)
	if t == "" {
		return Action{}
	}
	if api == nil {
		api = passThroughAPI{}
	}

	fn, ok := copyTable[t]
	if !ok {
		return ShallowCopyAction(a, api)
	}
	return fn(ctx, a, api)
}

// CopyActionList copies each action in order, finishing one before starting
// the next. Anything other than a list yields an empty list.
func CopyActionList(ctx context.Context, actions any, api ExternalAPI) []any {
	list, ok := asList(actions)
	if !ok {
		return []any{}
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		out = append(out, CopyAction(ctx, item, api))
	}
	return out
}

// ShallowCopyAction copies the top-level fields of action and replaces its
// designer data with a newly minted one. Nested values are shared with the
// input.
func ShallowCopyAction(action Action, api ExternalAPI) Action {
	if api == nil {
		api = passThroughAPI{}
	}
	c := make(Action, len(action)+1)
	for k, v := range action {
		c[k] = v
	}
	existing, _ := action[DesignerKey].(map[string]any)
	c[DesignerKey] = api.GetDesignerID(existing)
	return c
}

func copyIfCondition(ctx context.Context, action Action, api ExternalAPI) Action {
	c := ShallowCopyAction(action, api)
	c["actions"] = CopyActionList(ctx, action["actions"], api)
	c["elseActions"] = CopyActionList(ctx, action["elseActions"], api)
	return c
}

func copySwitchCondition(ctx context.Context, action Action, api ExternalAPI) Action {
	c := ShallowCopyAction(action, api)
	if cases, ok := asList(action["cases"]); ok {
		copied := make([]any, 0, len(cases))
		for _, item := range cases {
			sc, _ := AsAction(item)
			copied = append(copied, map[string]any{
				"value":   sc["value"],
				"actions": CopyActionList(ctx, sc["actions"], api),
			})
		}
		c["cases"] = copied
	}
	c["default"] = CopyActionList(ctx, action["default"], api)
	return c
}

func copyForeach(ctx context.Context, action Action, api ExternalAPI) Action {
	c := ShallowCopyAction(action, api)
	c["actions"] = CopyActionList(ctx, action["actions"], api)
	return c
}

func copyEditActions(ctx context.Context, action Action, api ExternalAPI) Action {
	c := ShallowCopyAction(action, api)
	c["actions"] = CopyActionList(ctx, action["actions"], api)
	return c
}

func copySendActivity(ctx context.Context, action Action, api ExternalAPI) Action {
	c := ShallowCopyAction(action, api)
	copyLgFields(ctx, action, c, api, lgFields[TypeSendActivity])
	return c
}

func copyInputDialog(ctx context.Context, action Action, api ExternalAPI) Action {
	c := ShallowCopyAction(action, api)
	t := TypeOf(action)
	copyLgFields(ctx, action, c, api, lgFields[t])
	copyLuFields(ctx, action, c, api, luFields[t])
	return c
}

// copyLgFields runs the LG hook for each present field. A failing hook leaves
// the shallow-copied value in place.
func copyLgFields(ctx context.Context, from, to Action, api ExternalAPI, fields []string) {
	fromID, toID := DesignerID(from), DesignerID(to)
	for _, field := range fields {
		if _, ok := from[field]; !ok {
			continue
		}
		v, err := api.CopyLgField(ctx, fromID, from, toID, to, field)
		if err != nil {
			slog.WarnContext(ctx, "copy lg field failed, keeping source value",
				slog.String("type", TypeOf(from)),
				slog.String("field", field),
				slog.String("error", err.Error()))
			continue
		}
		to[field] = v
	}
}

func copyLuFields(ctx context.Context, from, to Action, api ExternalAPI, fields []string) {
	fromID, toID := DesignerID(from), DesignerID(to)
	for _, field := range fields {
		if _, ok := from[field]; !ok {
			continue
		}
		v, err := api.CopyLuField(ctx, fromID, from, toID, to, field)
		if err != nil {
			slog.WarnContext(ctx, "copy lu field failed, keeping source value",
				slog.String("type", TypeOf(from)),
				slog.String("field", field),
				slog.String("error", err.Error()))
			continue
		}
		to[field] = v
	}
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, a := range l {
			out[i] = a
		}
		return out, true
	default:
		return nil, false
	}
}

// passThroughAPI keeps designer data and field values as they are. It stands
// in when a caller supplies no ExternalAPI.
type passThroughAPI struct{}

func (passThroughAPI) GetDesignerID(existing DesignerData) DesignerData {
	d := make(DesignerData, len(existing))
	for k, v := range existing {
		d[k] = v
	}
	return d
}

func (passThroughAPI) CopyLgField(_ context.Context, _ string, from Action, _ string, _ Action, field string) (string, error) {
	s, ok := from[field].(string)
	if !ok {
		return "", fmt.Errorf("field %q is not text", field)
	}
	return s, nil
}

func (passThroughAPI) CopyLuField(_ context.Context, _ string, from Action, _ string, _ Action, field string) (any, error) {
	return from[field], nil
}
