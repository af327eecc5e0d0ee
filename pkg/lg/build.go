package lg

import "strings"

// BuildParamString renders a parameter list including its parentheses. A nil
// list renders as "()".
func BuildParamString(params []string) string {
	return "(" + strings.Join(params, ",") + ")"
}

// BuildTemplateRefString renders [name] or [name(params)]. The parameter list
// is omitted only when params is nil.
func BuildTemplateRefString(name string, params []string) string {
	if params == nil {
		return "[" + name + "]"
	}
	return "[" + name + BuildParamString(params) + "]"
}

// BuildTemplateName renders the canonical composer template name for meta.
func BuildTemplateName(meta MetaData) string {
	return SchemeCanonical.Format(meta)
}
