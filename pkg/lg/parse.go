package lg

import (
	"regexp"
	"strings"
)

// A Regexp keeps no scan position between calls.
var (
	templateRefPattern = regexp.MustCompile(`^\[([^\[\]()]+)(\(([^()]*)\))?\]$`)
	templateRefScan    = regexp.MustCompile(`\[([^\[\]()]+)(\(([^()]*)\))?\]`)
)

// ParseTemplateRef parses a string that consists entirely of a bracketed
// template reference.
func ParseTemplateRef(s string) (TemplateRef, bool) {
	m := templateRefPattern.FindStringSubmatch(s)
	if m == nil {
		return TemplateRef{}, false
	}
	return refFromMatch(m), true
}

// ParseText parses an LG body line of the form "- [ref]".
func ParseText(s string) (TemplateRef, bool) {
	rest, ok := strings.CutPrefix(s, bodyPrefix)
	if !ok {
		return TemplateRef{}, false
	}
	return ParseTemplateRef(rest)
}

// ExtractTemplateRefs returns every bracketed reference found anywhere in
// text, in order of appearance.
func ExtractTemplateRefs(text string) []TemplateRef {
	matches := templateRefScan.FindAllStringSubmatch(text, -1)
	refs := make([]TemplateRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, refFromMatch(m))
	}
	return refs
}

// refFromMatch expects the submatch layout shared by both reference patterns:
// full, name, parenthesised params, params body.
func refFromMatch(m []string) TemplateRef {
	ref := TemplateRef{Name: m[1]}
	if m[2] == "" {
		return ref
	}
	ref.Parameters = parseParams(m[3])
	return ref
}

// parseParams splits on bare commas and keeps whitespace, so a parameter list
// reads back exactly as BuildParamString wrote it. The one exception is [""],
// which renders as "()" and reads back empty.
func parseParams(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

// ParseTemplateName parses a canonical composer template name
// (bfd<type>_<designerId>). The type ends at the first underscore, so designer
// IDs may contain underscores but types may not.
func ParseTemplateName(name string) (MetaData, bool) {
	return ParseTemplateNameAs(name, SchemeCanonical)
}

// ParseTemplateNameAs parses a template name using an explicit naming scheme.
func ParseTemplateNameAs(name string, scheme NamingScheme) (MetaData, bool) {
	m := scheme.namePattern().FindStringSubmatch(name)
	if m == nil {
		return MetaData{}, false
	}
	return MetaData{Type: m[1], DesignerID: m[2]}, true
}
