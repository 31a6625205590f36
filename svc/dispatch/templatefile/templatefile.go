// Package templatefile loads notification templates from YAML documents.
//
//	templates:
//	  - id: ticket-created-admins
//	    event_type: ticket.created
//	    channels: [email, telegram]
//	    subject_template: "New ticket {{ticket_number}}"
//	    body_template: "{client_name} opened {{ticket_number}}"
//	    send_to_admins: true
//	    is_active: true
package templatefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

var (
	ErrParse       = errors.New("templatefile.parse")
	ErrDuplicateID = errors.New("templatefile.duplicate_id")
	ErrNoTemplates = errors.New("templatefile.no_templates")
)

type document struct {
	Templates []dispatch.Template `yaml:"templates"`
}

// Decode reads one YAML document and validates every template in it.
// Unknown keys are rejected so that typos in flag names surface early.
func Decode(r io.Reader) ([]dispatch.Template, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoTemplates
		}
		return nil, errors.Join(ErrParse, err)
	}
	if len(doc.Templates) == 0 {
		return nil, ErrNoTemplates
	}

	seen := make(map[string]struct{}, len(doc.Templates))
	for i, t := range doc.Templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("template #%d: %w", i+1, err)
		}
		if _, ok := seen[t.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return doc.Templates, nil
}

// Parse is Decode over a byte slice.
func Parse(data []byte) ([]dispatch.Template, error) {
	return Decode(bytes.NewReader(data))
}

// LoadFile reads templates from a single file on disk.
func LoadFile(name string) ([]dispatch.Template, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open template file: %w", err)
	}
	defer f.Close()

	out, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// LoadDir reads every .yaml and .yml file in dir, in lexical order.
// Template IDs must be unique across files.
func LoadDir(fsys fs.FS, dir string) ([]dispatch.Template, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}

	var (
		out  []dispatch.Template
		seen = make(map[string]string)
	)
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		name := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		templates, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for _, t := range templates {
			if prev, ok := seen[t.ID]; ok {
				return nil, fmt.Errorf("%w: %q in %s and %s", ErrDuplicateID, t.ID, prev, name)
			}
			seen[t.ID] = name
		}
		out = append(out, templates...)
	}
	if len(out) == 0 {
		return nil, ErrNoTemplates
	}
	return out, nil
}

// Load reads templates from a file, or from every YAML file when name is a
// directory.
func Load(name string) ([]dispatch.Template, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("stat templates: %w", err)
	}
	if info.IsDir() {
		return LoadDir(os.DirFS(name), ".")
	}
	return LoadFile(name)
}

// Store loads name and returns an in-memory store holding its templates.
func Store(name string) (*dispatch.MemoryTemplateStore, error) {
	templates, err := Load(name)
	if err != nil {
		return nil, err
	}
	store := dispatch.NewMemoryTemplateStore()
	for _, t := range templates {
		if err := store.Put(t); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return slices.Contains([]string{".yaml", ".yml"}, ext)
}
