package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stripmark/internal/strip"
)

// Document is a text with the bindings its markers refer to.
type Document struct {
	// Name identifies the document in traces and stored fragments.
	Name string `yaml:"name" json:"name"`

	// Text is the document body. @@id@@ expands to a marker token.
	Text string `yaml:"text" json:"text"`

	// Bindings are added to the state in order; later entries overwrite
	// earlier ones with the same category and id.
	Bindings []BindingSpec `yaml:"bindings,omitempty" json:"bindings,omitempty"`
}

// BindingSpec describes one binding.
type BindingSpec struct {
	Category string `yaml:"category" json:"category"`
	ID       string `yaml:"id" json:"id"`
	Value    string `yaml:"value" json:"value"`

	// Lazy binds the value as a producer instead of literal text.
	Lazy bool `yaml:"lazy,omitempty" json:"lazy,omitempty"`
}

// ErrUnsupportedFormat is returned for files that are neither YAML nor CUE.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// sigil matches the authoring shorthand for a marker token.
var sigil = regexp.MustCompile(`@@([^@\s<>&'"\x7f]+)@@`)

// Expand replaces every @@id@@ in s with strip.Marker(id).
func Expand(s string) string {
	return sigil.ReplaceAllStringFunc(s, func(m string) string {
		return strip.Marker(m[2 : len(m)-2])
	})
}

// Load reads a document from a .yaml, .yml or .cue file.
// If the document has no name, the file name without extension is used.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}

	var doc *Document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		doc, err = ParseYAML(data)
	case ".cue":
		doc, err = ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid document: %w", path, err)
	}
	return doc, nil
}

// ParseYAML decodes a document, rejecting unknown fields.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &doc, nil
}

// Validate checks categories and identifiers.
func (d *Document) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	for i, b := range d.Bindings {
		if _, err := strip.ParseCategory(b.Category); err != nil {
			return fmt.Errorf("bindings[%d]: %w", i, err)
		}
		if !strip.IsIdentifier(b.ID) {
			return fmt.Errorf("bindings[%d]: invalid id %q", i, b.ID)
		}
	}
	return nil
}

// ProduceHook is called every time a lazy binding runs.
type ProduceHook func(cat strip.Category, id string)

// Build creates a State holding the document's bindings and returns it with
// the expanded text. hook may be nil.
func (d *Document) Build(hook ProduceHook, opts ...strip.Option) (*strip.State, string, error) {
	st := strip.New(opts...)
	for i, b := range d.Bindings {
		cat, err := strip.ParseCategory(b.Category)
		if err != nil {
			return nil, "", fmt.Errorf("bindings[%d]: %w", i, err)
		}
		if err := st.Add(cat, strip.Marker(b.ID), d.value(cat, b, hook)); err != nil {
			return nil, "", fmt.Errorf("bindings[%d]: %w", i, err)
		}
	}
	return st, Expand(d.Text), nil
}

func (d *Document) value(cat strip.Category, b BindingSpec, hook ProduceHook) strip.Value {
	expanded := Expand(b.Value)
	if !b.Lazy {
		return strip.Text(expanded)
	}
	id := b.ID
	return strip.Producer(func() (string, error) {
		if hook != nil {
			hook(cat, id)
		}
		return expanded, nil
	})
}

// Collapse is the inverse of Expand: every marker token in s becomes @@id@@.
// Text outside markers is returned unchanged.
func Collapse(s string) string {
	var b strings.Builder
	last := 0
	for m := range strip.FindMarkers(s) {
		b.WriteString(s[last:m.Start])
		b.WriteString("@@")
		b.WriteString(m.ID)
		b.WriteString("@@")
		last = m.End
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}
