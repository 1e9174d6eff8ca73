package partition

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed layouts/layouts.yaml
var layoutsYAML []byte

// Kind distinguishes full flash dumps from update images.
type Kind string

const (
	KindROM    Kind = "rom"
	KindUpdate Kind = "update"
)

// Entry is one named byte range of an image.
type Entry struct {
	Name   string `yaml:"name" json:"name"`
	Offset int64  `yaml:"offset" json:"offset"`
	Size   int64  `yaml:"size" json:"size"`
}

// End returns the offset one past the entry's last byte.
func (e Entry) End() int64 {
	return e.Offset + e.Size
}

// Layout is an ordered partition table for one kind of image.
type Layout struct {
	// Name identifies the layout (e.g. "rom", "update")
	Name string `yaml:"name" json:"name"`

	// Kind is rom or update; only update layouts can be packed
	Kind Kind `yaml:"kind" json:"kind"`

	// Description is a human-readable summary
	Description string `yaml:"description" json:"description,omitempty"`

	// Source is the default input filename for unpack
	Source string `yaml:"source,omitempty" json:"source,omitempty"`

	// Output is the default output filename for pack
	Output string `yaml:"output,omitempty" json:"output,omitempty"`

	// HeaderSize documents the update header length; it must equal the
	// first entry's size when set
	HeaderSize int64 `yaml:"header_size,omitempty" json:"header_size,omitempty"`

	// Entries in table order
	Entries []Entry `yaml:"entries" json:"entries"`
}

// HeaderLength is the number of leading bytes excluded from the payload
// size: the first entry's size.
func (l *Layout) HeaderLength() int64 {
	if len(l.Entries) == 0 {
		return 0
	}
	return l.Entries[0].Size
}

// Span returns the highest end offset among the entries.
func (l *Layout) Span() int64 {
	var span int64
	for _, e := range l.Entries {
		if e.End() > span {
			span = e.End()
		}
	}
	return span
}

// Validate checks the structural rules every layout must satisfy.
func (l *Layout) Validate() error {
	if l.Name == "" {
		return &LayoutError{Layout: "(unnamed)", Reason: "name is required"}
	}
	switch l.Kind {
	case KindROM, KindUpdate:
	default:
		return &LayoutError{Layout: l.Name, Reason: fmt.Sprintf("unknown kind %q (expected %q or %q)", l.Kind, KindROM, KindUpdate)}
	}
	if len(l.Entries) == 0 {
		return &LayoutError{Layout: l.Name, Reason: "no entries"}
	}

	seen := make(map[string]bool, len(l.Entries))
	for _, e := range l.Entries {
		if e.Name == "" {
			return &LayoutError{Layout: l.Name, Reason: fmt.Sprintf("entry at offset 0x%x has no name", e.Offset)}
		}
		if seen[e.Name] {
			return &LayoutError{Layout: l.Name, Entry: e.Name, Reason: "duplicate entry name"}
		}
		seen[e.Name] = true
		if e.Offset < 0 {
			return &LayoutError{Layout: l.Name, Entry: e.Name, Reason: fmt.Sprintf("negative offset %d", e.Offset)}
		}
		if e.Size <= 0 {
			return &LayoutError{Layout: l.Name, Entry: e.Name, Reason: fmt.Sprintf("size must be positive, got %d", e.Size)}
		}
	}

	if l.Kind == KindUpdate {
		if l.HeaderLength() < MinHeaderLength {
			return &LayoutError{Layout: l.Name, Entry: l.Entries[0].Name,
				Reason: fmt.Sprintf("header entry is %d bytes, at least %d needed for size and checksum fields", l.HeaderLength(), MinHeaderLength)}
		}
		if l.HeaderSize != 0 && l.HeaderSize != l.HeaderLength() {
			return &LayoutError{Layout: l.Name, Entry: l.Entries[0].Name,
				Reason: fmt.Sprintf("header_size %d does not match first entry size %d", l.HeaderSize, l.HeaderLength())}
		}
	}
	return nil
}

// Catalog holds a set of layouts indexed by name.
type Catalog struct {
	// Layouts in file order
	Layouts []*Layout

	index map[string]*Layout
	mu    sync.RWMutex
}

// catalogContainer is for YAML unmarshaling
type catalogContainer struct {
	Layouts []*Layout `yaml:"layouts"`
}

var (
	// globalCatalog is the embedded layout catalog
	globalCatalog *Catalog
	// globalCatalogOnce ensures we only parse it once
	globalCatalogOnce sync.Once
	// globalCatalogErr stores any error from parsing
	globalCatalogErr error
)

// LoadLayouts returns the built-in layout catalog. The embedded YAML is
// parsed once; later calls return the same instance.
func LoadLayouts() (*Catalog, error) {
	globalCatalogOnce.Do(func() {
		globalCatalog, globalCatalogErr = ParseLayouts(layoutsYAML)
	})
	return globalCatalog, globalCatalogErr
}

// LoadLayoutsFile reads a user-supplied layout file.
func LoadLayoutsFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FilesystemError{Op: "read", Path: path, Err: err}
	}
	catalog, err := ParseLayouts(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// ParseLayouts decodes and validates a layout catalog document.
func ParseLayouts(data []byte) (*Catalog, error) {
	var container catalogContainer
	if err := yaml.Unmarshal(data, &container); err != nil {
		return nil, fmt.Errorf("failed to parse layouts: %w", err)
	}

	catalog := &Catalog{
		Layouts: container.Layouts,
		index:   make(map[string]*Layout, len(container.Layouts)),
	}
	for _, l := range catalog.Layouts {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if _, dup := catalog.index[l.Name]; dup {
			return nil, &LayoutError{Layout: l.Name, Reason: "defined more than once"}
		}
		catalog.index[l.Name] = l
	}
	return catalog, nil
}

// Merge returns a catalog containing c's layouts overridden and extended by
// other's. Neither input is modified.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := &Catalog{index: make(map[string]*Layout)}
	for _, src := range []*Catalog{c, other} {
		if src == nil {
			continue
		}
		for _, l := range src.Layouts {
			if _, exists := merged.index[l.Name]; exists {
				for i, existing := range merged.Layouts {
					if existing.Name == l.Name {
						merged.Layouts[i] = l
					}
				}
			} else {
				merged.Layouts = append(merged.Layouts, l)
			}
			merged.index[l.Name] = l
		}
	}
	return merged
}

// Get retrieves a layout by name.
func (c *Catalog) Get(name string) (*Layout, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	l, ok := c.index[name]
	if !ok {
		return nil, &LayoutNotFoundError{Name: name, Available: c.namesLocked()}
	}
	return l, nil
}

// List returns all layouts in catalog order.
func (c *Catalog) List() []*Layout {
	return c.Layouts
}

// Names returns the sorted layout names.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.namesLocked()
}

func (c *Catalog) namesLocked() []string {
	names := make([]string, 0, len(c.index))
	for name := range c.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByKind returns the layouts of one kind, in catalog order.
func (c *Catalog) ByKind(kind Kind) []*Layout {
	var out []*Layout
	for _, l := range c.Layouts {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}
