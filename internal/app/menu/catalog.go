package menu

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pixelharbor/concierge/internal/observability"
)

// Category is one node of the menu tree: a branch holding child categories
// or a leaf holding item labels. A node carrying both is treated as a branch,
// so the ambiguous case cannot change behaviour.
type Category struct {
	Name     string      `yaml:"name"`
	Items    []string    `yaml:"items,omitempty"`
	Children []*Category `yaml:"subcategories,omitempty"`
}

// Branch builds a branch node.
func Branch(name string, children ...*Category) *Category {
	return &Category{Name: name, Children: children}
}

// Leaf builds a leaf node.
func Leaf(name string, items ...string) *Category {
	return &Category{Name: name, Items: items}
}

// IsBranch reports whether the node navigates deeper rather than ending in
// selectable items.
func (c *Category) IsBranch() bool {
	return len(c.Children) > 0
}

// Options returns what this node offers, in stored order: child category
// names for a branch, item labels for a leaf. A node with neither yields nil.
func (c *Category) Options() []string {
	if c.IsBranch() {
		names := make([]string, 0, len(c.Children))
		for _, child := range c.Children {
			names = append(names, child.Name)
		}
		return names
	}
	return c.Items
}

// Child returns the child category with the given name, or nil. Plain items
// are not children; selecting one ends navigation.
func (c *Category) Child(name string) *Category {
	for _, child := range c.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// Catalog is the process-wide menu tree, loaded once at startup.
type Catalog struct {
	Categories []*Category `yaml:"categories"`
}

// TopLevel returns the root categories in stored order.
func (c *Catalog) TopLevel() []*Category {
	return c.Categories
}

// At walks a dot-separated category path from the root. An empty path or a
// path segment that does not exist yields nil.
func (c *Catalog) At(path string) *Category {
	if path == "" {
		return nil
	}

	var current *Category
	for _, part := range strings.Split(path, ".") {
		if current == nil {
			for _, cat := range c.Categories {
				if cat.Name == part {
					current = cat
					break
				}
			}
			if current == nil {
				return nil
			}
			continue
		}
		current = current.Child(part)
		if current == nil {
			return nil
		}
	}
	return current
}

// LeafItems collects every selectable item label in the catalog.
func (c *Catalog) LeafItems() []string {
	var items []string
	var walk func(cat *Category)
	walk = func(cat *Category) {
		items = append(items, cat.Items...)
		for _, child := range cat.Children {
			walk(child)
		}
	}
	for _, cat := range c.Categories {
		walk(cat)
	}
	return items
}

// DefaultCatalog is the built-in menu used when no catalog file is configured
// or the configured one cannot be parsed.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: []*Category{
			Branch("Beverages",
				Leaf("Coffee", "Mocha", "Espresso", "Latte", "Iced Coffee", "Cappuccino"),
				Leaf("Tea", "Green Tea", "Black Tea", "Herbal Tea", "Chai Tea"),
				Leaf("Water", "Water", "Sparkling Water"),
				Leaf("Hot Chocolate", "Hot Chocolate", "White Hot Chocolate"),
			),
			Leaf("Snacks", "Cookies", "Chips", "Fruit Basket", "Muffins"),
		},
	}
}

// LoadCatalog reads a catalog from a YAML file, falling back to the built-in
// default when the path is empty or the file is absent or malformed.
func LoadCatalog(path string) *Catalog {
	log := observability.Logger()

	if path == "" {
		log.Info("using default menu catalog")
		return DefaultCatalog()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("failed to read menu catalog, using defaults", "path", path, "error", err)
		return DefaultCatalog()
	}

	catalog, err := parseCatalog(data)
	if err != nil {
		log.Warn("failed to parse menu catalog, using defaults", "path", path, "error", err)
		return DefaultCatalog()
	}

	log.Info("loaded menu catalog", "path", path, "categories", len(catalog.Categories))
	return catalog
}

func parseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	if len(catalog.Categories) == 0 {
		return nil, fmt.Errorf("catalog has no categories")
	}
	return &catalog, nil
}
