// SPDX-License-Identifier: Apache-2.0

package conformity

import (
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/editalproj/edital-mcp/internal/textnorm"
)

// Product categories.
const (
	CategoryCamera = "camera"
	CategoryVMS    = "vms"
	CategorySensor = "sensor"
	CategoryCable  = "cabo"
	CategoryOther  = "outros"
)

// Product is a catalog entry. Rating is the base conformity probability, in
// percent, used by the mock scorer.
type Product struct {
	Manufacturer string  `yaml:"manufacturer" json:"manufacturer"`
	Model        string  `yaml:"model" json:"model"`
	Rating       float64 `yaml:"rating" json:"rating"`
}

// Catalog is an immutable product lookup table keyed by category.
type Catalog struct {
	products map[string][]Product
}

// NewCatalog copies products into a new Catalog.
func NewCatalog(products map[string][]Product) *Catalog {
	c := &Catalog{products: make(map[string][]Product, len(products))}
	for category, list := range products {
		c.products[category] = append([]Product(nil), list...)
	}
	return c
}

// Products returns a copy of the products of category, in catalog order.
func (c *Catalog) Products(category string) []Product {
	return append([]Product(nil), c.products[category]...)
}

// Categories returns the categories holding at least one product, sorted.
func (c *Catalog) Categories() []string {
	var out []string
	for category, list := range c.products {
		if len(list) > 0 {
			out = append(out, category)
		}
	}
	sort.Strings(out)
	return out
}

// DefaultCatalog is the small built-in demonstration catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[string][]Product{
		CategoryCamera: {
			{Manufacturer: "Hikvision", Model: "DS-2CD2143G2-I", Rating: 85},
			{Manufacturer: "Axis", Model: "P3265-LVE", Rating: 92},
			{Manufacturer: "Intelbras", Model: "VIP 3230 D SL G3", Rating: 75},
		},
		CategoryVMS: {
			{Manufacturer: "Milestone", Model: "XProtect Professional+", Rating: 90},
			{Manufacturer: "Digifort", Model: "Professional", Rating: 80},
		},
		CategorySensor: {
			{Manufacturer: "Bosch", Model: "ISC-BPR2-W12", Rating: 88},
			{Manufacturer: "JFL", Model: "IVP-3000 MW", Rating: 70},
		},
		CategoryCable: {
			{Manufacturer: "Furukawa", Model: "GigaLan Cat6 U/UTP", Rating: 95},
		},
	})
}

// LoadCatalog reads a YAML catalog of the form
//
//	camera:
//	  - manufacturer: Axis
//	    model: P3265-LVE
//	    rating: 92
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var products map[string][]Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	for category, list := range products {
		for i, p := range list {
			if p.Model == "" {
				return nil, fmt.Errorf("catalog category %q entry %d has no model", category, i)
			}
			if p.Rating < 0 || p.Rating > 100 {
				return nil, fmt.Errorf("catalog product %q has rating %.1f outside 0-100", p.Model, p.Rating)
			}
		}
	}
	return NewCatalog(products), nil
}

// categoryRule maps trigger keywords to a product category.
type categoryRule struct {
	keywords []string
	category string
}

// categoryRules is evaluated in order; the first match wins.
var categoryRules = []categoryRule{
	{keywords: []string{"CAMERA"}, category: CategoryCamera},
	{keywords: []string{"SOFTWARE", "VMS", "GERENCIAMENTO DE VIDEO"}, category: CategoryVMS},
	{keywords: []string{"SENSOR"}, category: CategorySensor},
	{keywords: []string{"CABO"}, category: CategoryCable},
}

// InferCategory maps an item description to a product category.
func InferCategory(description string) string {
	for _, rule := range categoryRules {
		if textnorm.ContainsAny(description, rule.keywords...) {
			return rule.category
		}
	}
	return CategoryOther
}
