// Package adaptive copies and walks adaptive-dialog action trees.
//
// Actions are open JSON objects discriminated by "$type". Only the types listed
// in the dispatch tables of this package are traversed structurally; any other
// type is treated as a leaf even if it holds nested actions.
package adaptive

import "context"

// Action is a dialog action as decoded from JSON.
type Action = map[string]any

// DesignerData is the authoring metadata stored under "$designer".
type DesignerData = map[string]any

const (
	TypeKey     = "$type"
	DesignerKey = "$designer"
	IDKey       = "id"
)

// Action types with nested structure.
const (
	TypeIfCondition     = "Microsoft.IfCondition"
	TypeSwitchCondition = "Microsoft.SwitchCondition"
	TypeForeach         = "Microsoft.Foreach"
	TypeForeachPage     = "Microsoft.ForeachPage"
	TypeEditActions     = "Microsoft.EditActions"
	TypeSendActivity    = "Microsoft.SendActivity"
	TypeAttachmentInput = "Microsoft.AttachmentInput"
	TypeChoiceInput     = "Microsoft.ChoiceInput"
	TypeConfirmInput    = "Microsoft.ConfirmInput"
	TypeDateTimeInput   = "Microsoft.DateTimeInput"
	TypeNumberInput     = "Microsoft.NumberInput"
	TypeTextInput       = "Microsoft.TextInput"
)

// ExternalAPI is the host side of a copy: ID minting and forking of the
// content that LG and LU fields point at.
//
// CopyLgField and CopyLuField receive the source and the partially built copy
// and return the value for field in the copy. They must not modify templates
// belonging to the source action.
type ExternalAPI interface {
	GetDesignerID(existing DesignerData) DesignerData
	CopyLgField(ctx context.Context, fromID string, from Action, toID string, to Action, field string) (string, error)
	CopyLuField(ctx context.Context, fromID string, from Action, toID string, to Action, field string) (any, error)
}

// AsAction returns v as an action object if it is one.
func AsAction(v any) (Action, bool) {
	a, ok := v.(map[string]any)
	return a, ok && a != nil
}

// TypeOf returns the "$type" of v, or "" if v is not an action.
func TypeOf(v any) string {
	a, ok := AsAction(v)
	if !ok {
		return ""
	}
	t, _ := a[TypeKey].(string)
	return t
}

// DesignerID returns the "$designer.id" of v, or "".
func DesignerID(v any) string {
	a, ok := AsAction(v)
	if !ok {
		return ""
	}
	d, ok := a[DesignerKey].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := d[IDKey].(string)
	return id
}
