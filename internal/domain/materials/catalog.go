// Package materials holds the static recommendation catalog mapping an
// element to gemstones and materials that strengthen it.
package materials

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/okian/tianji/internal/domain/bazi"
	"gopkg.in/yaml.v3"
)

// Sentinel kinds for catalog errors.
var (
	ErrCatalog = errors.New("invalid materials catalog")
)

//go:embed materials.yaml
var defaultCatalogYAML []byte

// Material is a single recommended item.
type Material struct {
	Name          string `yaml:"name" json:"name"`
	LocalizedName string `yaml:"localized_name" json:"localized_name"`
	Category      string `yaml:"category" json:"category"`
	Benefit       string `yaml:"benefit" json:"benefit"`
}

// Catalog maps each element to an ordered list of materials.
type Catalog struct {
	items [5][]Material
}

// Parse decodes a YAML catalog keyed by element name. Every element must
// appear under exactly one key, have at least one item, and every item needs
// a name and a benefit.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string][]Material
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}

	c := &Catalog{}
	var keys [5]string
	for key, list := range raw {
		e, err := bazi.ParseElement(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
		}
		// Aliases such as "wood" and "木" name the same element.
		if prev := keys[e]; prev != "" {
			return nil, fmt.Errorf("%w: %s listed twice (%q, %q)", ErrCatalog, e, prev, key)
		}
		keys[e] = key
		for i, m := range list {
			if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Benefit) == "" {
				return nil, fmt.Errorf("%w: %s item %d needs name and benefit", ErrCatalog, e, i)
			}
		}
		c.items[e] = list
	}
	for _, e := range bazi.Elements() {
		if len(c.items[e]) == 0 {
			return nil, fmt.Errorf("%w: no materials for %s", ErrCatalog, e)
		}
	}
	return c, nil
}

// Recommended returns a copy of the materials for e in display order.
func (c *Catalog) Recommended(e bazi.Element) ([]Material, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", bazi.ErrUnknownElement, int(e))
	}
	out := make([]Material, len(c.items[e]))
	copy(out, c.items[e])
	return out, nil
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the embedded catalog. It panics if the embedded data is
// malformed, which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultCatalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// RecommendedMaterials looks up e in the embedded catalog.
func RecommendedMaterials(e bazi.Element) ([]Material, error) {
	return Default().Recommended(e)
}
