package lg

import (
	"context"
	"log/slog"
	"strings"
)

// Template is a named LG template as held by a template store.
type Template struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// TemplateAPI is the template store primitives used when forking templates.
// GetTemplates may return more templates than the one asked for; callers pick
// the match themselves.
type TemplateAPI interface {
	GetTemplates(ctx context.Context, containerID, refOrFilter string) ([]Template, error)
	UpdateTemplate(ctx context.Context, containerID, name, body string) error
}

// Forker copies composer-owned templates under new names so that a cloned
// action does not share templates with its source.
type Forker struct {
	api     TemplateAPI
	schemes []NamingScheme
}

// NewForker creates a forker over api recognising the given naming schemes,
// or DefaultSchemes when none are given.
func NewForker(api TemplateAPI, schemes ...NamingScheme) *Forker {
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}
	return &Forker{api: api, schemes: schemes}
}

// Schemes returns the naming schemes the forker treats as composer-owned.
func (f *Forker) Schemes() []NamingScheme {
	return f.schemes
}

// Owns reports whether refOrText is a bracketed reference to a template
// generated by the composer.
func (f *Forker) Owns(refOrText string) bool {
	name, ok := bracketed(refOrText)
	return ok && OwnedBy(name, f.schemes)
}

// Fork copies the template referenced by refOrText to newName and returns the
// value to store in the cloned field.
//
// Literal text, user-authored references and lookup failures come back
// unchanged. When the template is found but cannot be written under newName,
// its body text is returned so the clone still says the same thing.
func (f *Forker) Fork(ctx context.Context, containerID, refOrText, newName string) string {
	if refOrText == "" {
		return ""
	}
	if f.api == nil || !f.Owns(refOrText) {
		return refOrText
	}

	templates, err := f.api.GetTemplates(ctx, containerID, refOrText)
	if err != nil {
		slog.WarnContext(ctx, "lg fork: get templates",
			slog.String("container", containerID),
			slog.String("ref", refOrText),
			slog.String("error", err.Error()))
		return refOrText
	}

	var match *Template
	for i := range templates {
		if "["+templates[i].Name+"]" == refOrText {
			match = &templates[i]
			break
		}
	}
	if match == nil {
		return refOrText
	}

	if err := f.api.UpdateTemplate(ctx, containerID, newName, match.Body); err != nil {
		slog.WarnContext(ctx, "lg fork: update template, inlining body",
			slog.String("container", containerID),
			slog.String("template", newName),
			slog.String("error", err.Error()))
		return match.Body
	}
	return "[" + newName + "]"
}

// CopyTemplate forks a single template reference using DefaultSchemes.
func CopyTemplate(ctx context.Context, containerID, refOrText, newName string, api TemplateAPI) string {
	return NewForker(api).Fork(ctx, containerID, refOrText, newName)
}

func bracketed(s string) (string, bool) {
	if len(s) < 3 || !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return "", false
	}
	return s[1 : len(s)-1], true
}
