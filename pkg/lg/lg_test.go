package lg

import (
	"reflect"
	"testing"
)

func TestTemplateRefString(t *testing.T) {
	tests := []struct {
		ref  TemplateRef
		want string
	}{
		{TemplateRef{Name: "greeting"}, "[greeting]"},
		{TemplateRef{Name: "greeting", Parameters: []string{}}, "[greeting()]"},
		{TemplateRef{Name: "greeting", Parameters: []string{"a"}}, "[greeting(a)]"},
		{TemplateRef{Name: "greeting", Parameters: []string{"a", "b", "c"}}, "[greeting(a,b,c)]"},
	}
	for _, tt := range tests {
		if got := tt.ref.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}

	if got := NewTemplateRef("bye").LgText(); got != "- [bye]" {
		t.Errorf("LgText() = %q, want %q", got, "- [bye]")
	}
}

func TestTemplateRefRoundTrip(t *testing.T) {
	names := []string{"a", "_x", "Greeting", "bfdactivity_c8f3k2", "user_name_2"}
	paramSets := [][]string{
		nil, {}, {"x"}, {"user.name", "1"}, {"a", "b", "c", "d"},
		{" x"}, {"a ", " b"}, {" "}, {"a", ""}, {"", ""},
	}

	for _, name := range names {
		for _, params := range paramSets {
			in := TemplateRef{Name: name, Parameters: params}
			got, ok := ParseTemplateRef(in.String())
			if !ok {
				t.Fatalf("ParseTemplateRef(%q) failed", in.String())
			}
			if !reflect.DeepEqual(got, in) {
				t.Errorf("round trip %q = %#v, want %#v", in.String(), got, in)
			}
		}
	}
}

func TestTemplateRefSingleEmptyParamCollapses(t *testing.T) {
	in := TemplateRef{Name: "greeting", Parameters: []string{""}}
	if got := in.String(); got != "[greeting()]" {
		t.Fatalf("String() = %q", got)
	}
	got, _ := ParseTemplateRef(in.String())
	if got.Parameters == nil || len(got.Parameters) != 0 {
		t.Errorf("parameters = %#v, want empty non-nil slice", got.Parameters)
	}
}

func TestParseTemplateRef(t *testing.T) {
	tests := []struct {
		in     string
		want   TemplateRef
		wantOK bool
	}{
		{"", TemplateRef{}, false},
		{"hello", TemplateRef{}, false},
		{"[]", TemplateRef{}, false},
		{"- [greeting]", TemplateRef{}, false},
		{"[greeting] and more", TemplateRef{}, false},
		{"[greeting]", TemplateRef{Name: "greeting"}, true},
		{"[greeting()]", TemplateRef{Name: "greeting", Parameters: []string{}}, true},
		{"[greeting(a, b)]", TemplateRef{Name: "greeting", Parameters: []string{"a", " b"}}, true},
		{"[greeting( )]", TemplateRef{Name: "greeting", Parameters: []string{" "}}, true},
	}
	for _, tt := range tests {
		got, ok := ParseTemplateRef(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParseTemplateRef(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseTemplateRef(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestParseText(t *testing.T) {
	ref, ok := ParseText("- [bfdactivity_abc]")
	if !ok {
		t.Fatal("expected match")
	}
	if ref.Name != "bfdactivity_abc" {
		t.Errorf("name = %q, want %q", ref.Name, "bfdactivity_abc")
	}

	for _, in := range []string{"", "-", "- ", "- hello", "[greeting]", "- [greeting] there"} {
		if _, ok := ParseText(in); ok {
			t.Errorf("ParseText(%q) matched, want no match", in)
		}
	}
}

func TestExtractTemplateRefs(t *testing.T) {
	got := ExtractTemplateRefs("-[Greeting], I'm a fancy bot, [Bye]")
	want := []TemplateRef{NewTemplateRef("Greeting"), NewTemplateRef("Bye")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTemplateRefs = %#v, want %#v", got, want)
	}

	if got := ExtractTemplateRefs("Hi"); len(got) != 0 {
		t.Errorf("ExtractTemplateRefs(%q) = %#v, want empty", "Hi", got)
	}
	if got := ExtractTemplateRefs(""); len(got) != 0 {
		t.Errorf("ExtractTemplateRefs(empty) = %#v, want empty", got)
	}

	// Repeated calls must not carry state between inputs.
	for i := 0; i < 3; i++ {
		if got := ExtractTemplateRefs("[a][b(x)]"); len(got) != 2 {
			t.Fatalf("call %d: got %d refs, want 2", i, len(got))
		}
	}
}

func TestFieldRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "- "},
		{"-", "- "},
		{"-hi", "- hi"},
		{"- hi", "- hi"},
		{"[greeting]", "- [greeting]"},
		{"-[greeting(a,b)]", "- [greeting(a,b)]"},
		{"hello there", "- hello there"},
	}
	for _, tt := range tests {
		if got := ParseField(tt.in).String(); got != tt.want {
			t.Errorf("ParseField(%q).String() = %q, want %q", tt.in, got, tt.want)
		}
	}

	f := ParseField("- [greeting]")
	if !f.IsRef() || f.Ref.Name != "greeting" {
		t.Errorf("ParseField ref = %#v, want greeting", f)
	}
}

func TestTemplateNameRoundTrip(t *testing.T) {
	meta := MetaData{Type: "activity", DesignerID: "c8f3k2q9"}
	name := BuildTemplateName(meta)
	if name != "bfdactivity_c8f3k2q9" {
		t.Errorf("BuildTemplateName = %q, want %q", name, "bfdactivity_c8f3k2q9")
	}
	if meta.String() != name {
		t.Errorf("MetaData.String() = %q, want %q", meta.String(), name)
	}

	got, ok := ParseTemplateName(name)
	if !ok || got != meta {
		t.Errorf("ParseTemplateName(%q) = %#v, %v; want %#v", name, got, ok, meta)
	}

	for _, in := range []string{"", "greeting", "bfdactivity-1234", "bfd_"} {
		if _, ok := ParseTemplateName(in); ok {
			t.Errorf("ParseTemplateName(%q) matched, want no match", in)
		}
	}
}

func TestTemplateNameRoundTripUnderscoreID(t *testing.T) {
	for _, meta := range []MetaData{
		{Type: "activity", DesignerID: "ab_cd"},
		{Type: "prompt", DesignerID: "a_b_c"},
		{Type: "invalidPrompt", DesignerID: "_x"},
	} {
		name := BuildTemplateName(meta)
		got, ok := ParseTemplateName(name)
		if !ok || got != meta {
			t.Errorf("ParseTemplateName(%q) = %#v, %v; want %#v", name, got, ok, meta)
		}
	}
}

func TestParseTemplateNameLegacy(t *testing.T) {
	got, ok := ParseTemplateNameAs("bfdactivity-1234", SchemeLegacy)
	if !ok {
		t.Fatal("expected legacy name to parse")
	}
	want := MetaData{Type: "activity", DesignerID: "1234"}
	if got != want {
		t.Errorf("got %#v, want %#v", got, want)
	}
	if SchemeLegacy.Format(want) != "bfdactivity-1234" {
		t.Errorf("Format = %q", SchemeLegacy.Format(want))
	}
	if _, ok := ParseTemplateNameAs("bfdactivity-abc", SchemeLegacy); ok {
		t.Error("legacy scheme requires a numeric id")
	}
}

func TestBuildParamString(t *testing.T) {
	if got := BuildParamString(nil); got != "()" {
		t.Errorf("BuildParamString(nil) = %q, want %q", got, "()")
	}
	if got := BuildParamString([]string{"a", "b"}); got != "(a,b)" {
		t.Errorf("BuildParamString = %q, want %q", got, "(a,b)")
	}
}
