package lg

import (
	"fmt"
	"regexp"
)

// NamingScheme selects one of the two template naming conventions found in
// stored dialogs. New names are always written in SchemeCanonical; the legacy
// scheme is only read.
type NamingScheme int

const (
	// SchemeCanonical is bfd<type>_<designerId>.
	SchemeCanonical NamingScheme = iota
	// SchemeLegacy is bfd<type>-<numericId>, written by older authoring tools.
	SchemeLegacy
)

var (
	canonicalName  = regexp.MustCompile(`^bfd(\w+?)_(\w+)$`)
	legacyName     = regexp.MustCompile(`^bfd(\w+)-(\d+)$`)
	canonicalOwned = regexp.MustCompile(`^bfd\w+_\w+$`)
	legacyOwned    = regexp.MustCompile(`^bfd.+-\d+$`)
)

// DefaultSchemes lists the schemes a Forker recognises when none are given.
var DefaultSchemes = []NamingScheme{SchemeCanonical, SchemeLegacy}

func (s NamingScheme) String() string {
	switch s {
	case SchemeCanonical:
		return "canonical"
	case SchemeLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("NamingScheme(%d)", int(s))
	}
}

// Format renders meta under this scheme.
func (s NamingScheme) Format(meta MetaData) string {
	if s == SchemeLegacy {
		return "bfd" + meta.Type + "-" + meta.DesignerID
	}
	return "bfd" + meta.Type + "_" + meta.DesignerID
}

// Owns reports whether name looks like a template generated under this scheme.
func (s NamingScheme) Owns(name string) bool {
	if s == SchemeLegacy {
		return legacyOwned.MatchString(name)
	}
	return canonicalOwned.MatchString(name)
}

func (s NamingScheme) namePattern() *regexp.Regexp {
	if s == SchemeLegacy {
		return legacyName
	}
	return canonicalName
}

// OwnedBy reports whether name is owned under any of schemes.
func OwnedBy(name string, schemes []NamingScheme) bool {
	for _, s := range schemes {
		if s.Owns(name) {
			return true
		}
	}
	return false
}
