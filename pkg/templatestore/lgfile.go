package templatestore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/voicetyped/composer/pkg/lg"
)

// LGFileExt is the extension of template files.
const LGFileExt = ".lg"

// ParseLGFile reads "# Name" headed templates. Lines starting with ">" are
// comments; a parameter list on the header is dropped from the name.
func ParseLGFile(r io.Reader) ([]lg.Template, error) {
	var (
		templates []lg.Template
		current   *lg.Template
		body      []string
	)
	flush := func() {
		if current == nil {
			return
		}
		for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
			body = body[:len(body)-1]
		}
		current.Body = strings.Join(body, "\n")
		templates = append(templates, *current)
		current, body = nil, nil
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(text)
		switch {
		case strings.HasPrefix(trimmed, ">"):
			continue
		case strings.HasPrefix(trimmed, "#"):
			flush()
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
			if i := strings.Index(name, "("); i >= 0 {
				name = strings.TrimSpace(name[:i])
			}
			if name == "" {
				return nil, fmt.Errorf("line %d: template header without a name", line)
			}
			current = &lg.Template{Name: name}
		case current == nil:
			if trimmed != "" {
				return nil, fmt.Errorf("line %d: body text outside a template", line)
			}
		default:
			body = append(body, text)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lg file: %w", err)
	}
	flush()
	return templates, nil
}

// FormatLGFile writes templates in the form ParseLGFile reads.
func FormatLGFile(w io.Writer, templates []lg.Template) error {
	for i, t := range templates {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "# %s\n%s\n", t.Name, t.Body); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir loads every .lg file in dir into s, one container per file named
// after the file without its extension.
func LoadDir(s *MemoryStore, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir %q: %w", dir, err)
	}

	var loaded []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != LGFileExt {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		templates, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", path, err)
		}
		id := strings.TrimSuffix(entry.Name(), LGFileExt)
		s.ReplaceContainer(id, templates)
		loaded = append(loaded, id)
	}
	return loaded, nil
}

func loadFile(path string) ([]lg.Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLGFile(f)
}
