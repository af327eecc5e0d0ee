package api

import "github.com/voicetyped/composer/pkg/adaptive"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TemplateResponse is the API form of an LG template.
type TemplateResponse struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// PutTemplateRequest is the request body for creating or replacing a template.
type PutTemplateRequest struct {
	Body string `json:"body"`
}

// CopyActionRequest copies either an inline action or the action with
// DesignerID in a loaded dialog.
type CopyActionRequest struct {
	Action     any    `json:"action,omitempty"`
	Dialog     string `json:"dialog,omitempty"`
	DesignerID string `json:"designer_id,omitempty"`
}

// CopyActionResponse carries the copied action.
type CopyActionResponse struct {
	Action any `json:"action"`
	Forked int `json:"forked"`
}

// ActionRequest carries a single action.
type ActionRequest struct {
	Action any `json:"action"`
}

// DeleteActionResponse lists the templates removed with an action.
type DeleteActionResponse struct {
	Deleted []string `json:"deleted"`
}

// TemplateRefsResponse lists referenced template names.
type TemplateRefsResponse struct {
	Templates []string `json:"templates"`
}

// DialogsResponse lists loaded dialogs.
type DialogsResponse struct {
	Dialogs []string `json:"dialogs"`
}

// LintResponse maps dialog names to their uncopied action lists.
type LintResponse struct {
	Gaps map[string][]adaptive.Gap `json:"gaps"`
}
