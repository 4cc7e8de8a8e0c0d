package render

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

// Templates holds one isolated template set per page template, each parsed
// together with the shared base.html layout. Isolation keeps block overrides
// in one page template from leaking into another.
type Templates struct {
	sets map[string]*template.Template
}

const layoutName = "base.html"

// LoadTemplates parses every *.html in dir except the layout into its own
// set. funcs is installed on every set.
func LoadTemplates(dir fs.FS, funcs template.FuncMap) (*Templates, error) {
	names, err := fs.Glob(dir, "*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}
	sets := make(map[string]*template.Template)
	for _, name := range names {
		if name == layoutName {
			continue
		}
		set, err := template.New(name).Funcs(funcs).ParseFS(dir, layoutName, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		sets[name] = set
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	return &Templates{sets: sets}, nil
}

// Has reports whether a page template was loaded. Startup wiring uses it to
// check every registered page type against the template dir.
func (t *Templates) Has(name string) bool {
	_, ok := t.sets[name]
	return ok
}

// Execute renders the named page template into w, entering via the layout.
func (t *Templates) Execute(w io.Writer, name string, data any) error {
	set, ok := t.sets[name]
	if !ok {
		return fmt.Errorf("template %q not loaded", name)
	}
	return set.ExecuteTemplate(w, layoutName, data)
}
