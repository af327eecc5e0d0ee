// Package lg implements the bracketed LG template-reference syntax embedded in
// dialog text fields, plus the naming convention for templates the composer
// generates itself.
package lg

import "strings"

// TemplateRef is a reference to a language-generation template, written as
// [name] or [name(p1,p2)].
//
// A nil Parameters slice means the reference carries no parameter list at all;
// a non-nil empty slice renders as [name()].
type TemplateRef struct {
	Name       string
	Parameters []string
}

// NewTemplateRef builds a reference without a parameter list.
func NewTemplateRef(name string) TemplateRef {
	return TemplateRef{Name: name}
}

// String renders the reference in its bracketed surface form.
func (r TemplateRef) String() string {
	return BuildTemplateRefString(r.Name, r.Parameters)
}

// LgText renders the reference as an LG body line.
func (r TemplateRef) LgText() string {
	return bodyPrefix + r.String()
}

// MetaData describes a template name generated by the composer from the owning
// action's designer ID.
type MetaData struct {
	Type       string
	DesignerID string
}

// String returns the canonical template name.
func (m MetaData) String() string {
	return BuildTemplateName(m)
}

const bodyPrefix = "- "

// Field is the value of an LG-bearing text field: either literal template body
// text or a single template reference.
type Field struct {
	Text string
	Ref  *TemplateRef
}

// TextField wraps literal body text.
func TextField(text string) Field {
	return Field{Text: text}
}

// RefField wraps a template reference.
func RefField(ref TemplateRef) Field {
	return Field{Ref: &ref}
}

// IsRef reports whether the field holds a template reference.
func (f Field) IsRef() bool {
	return f.Ref != nil
}

// String renders the field in canonical body-line form, always "- " prefixed.
func (f Field) String() string {
	if f.Ref != nil {
		return f.Ref.LgText()
	}
	return bodyPrefix + f.Text
}

// ParseField parses an LG body line. A leading "-" and at most one following
// space are stripped; the remainder is a template reference if it parses as
// one and literal text otherwise.
func ParseField(s string) Field {
	body := strings.TrimPrefix(s, "-")
	if len(body) != len(s) {
		body = strings.TrimPrefix(body, " ")
	}
	if ref, ok := ParseTemplateRef(body); ok {
		return RefField(ref)
	}
	return TextField(body)
}
