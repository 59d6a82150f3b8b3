// SPDX-License-Identifier: Apache-2.0

// Package conformity is a deterministic stand-in for product matching: it
// pseudo-randomly scores extracted requirements against a fixed catalog.
package conformity

import (
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
)

// Status is the conformity classification of an item.
type Status string

const (
	StatusConforme    Status = "CONFORME"
	StatusParcial     Status = "PARCIAL"
	StatusNaoConforme Status = "NAO_CONFORME"
	StatusSemProdutos Status = "SEM_PRODUTOS"
	StatusSemAnalise  Status = "SEM_ANALISE"
)

const (
	conformeThreshold  = 90.0
	parcialThreshold   = 70.0
	optionalRatingBump = 10.0
)

// Requirement is one extracted requirement of an item.
type Requirement struct {
	ID          string  `json:"id,omitempty" yaml:"id"`
	Description string  `json:"descricao" yaml:"descricao"`
	Mandatory   string  `json:"obrigatorio" yaml:"obrigatorio"`
	Weight      float64 `json:"peso,omitempty" yaml:"peso"`
}

// IsMandatory reports whether obrigatorio is "SIM".
func (r Requirement) IsMandatory() bool {
	return strings.EqualFold(strings.TrimSpace(r.Mandatory), "SIM")
}

func (r Requirement) weight() float64 {
	if r.Weight <= 0 {
		return 1
	}
	return r.Weight
}

// ProductScore is the mock evaluation of one product.
type ProductScore struct {
	Manufacturer   string  `json:"manufacturer"`
	Model          string  `json:"model"`
	MandatoryMet   int     `json:"mandatory_met"`
	MandatoryTotal int     `json:"mandatory_total"`
	OptionalMet    int     `json:"optional_met"`
	OptionalTotal  int     `json:"optional_total"`
	Score          float64 `json:"score"`
	MaxScore       float64 `json:"max_score"`
	ScorePercent   float64 `json:"score_percent"`
}

// Result is the conformity outcome for one item.
type Result struct {
	ItemID      string         `json:"item_id"`
	Category    string         `json:"category"`
	Status      Status         `json:"status"`
	BestMatch   *ProductScore  `json:"best_match"`
	AllProducts []ProductScore `json:"all_products"`
}

// Generator draws integers in [0, n).
type Generator interface {
	IntN(n int) int
}

// GeneratorFactory returns the generator used to score one product model.
type GeneratorFactory func(model string) Generator

// SeededGenerator seeds a PCG generator with the FNV-1a hash of model: the same
// model always draws the same sequence, different models draw independently.
func SeededGenerator(model string) Generator {
	h := fnv.New64a()
	h.Write([]byte(model))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Scorer scores requirements against an injected catalog.
type Scorer struct {
	catalog   *Catalog
	generator GeneratorFactory
	logger    *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

func WithGenerator(g GeneratorFactory) Option {
	return func(s *Scorer) { s.generator = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// NewScorer creates a Scorer over catalog; a nil catalog means DefaultCatalog.
func NewScorer(catalog *Catalog, opts ...Option) *Scorer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	s := &Scorer{catalog: catalog, generator: SeededGenerator}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Score evaluates requirements against every catalog product of the item's
// category. An empty category is inferred from description. Products are
// ranked by score percent, ties kept in catalog order.
func (s *Scorer) Score(itemID, description string, requirements []Requirement, category string) Result {
	if category == "" {
		category = InferCategory(description)
	}
	result := Result{ItemID: itemID, Category: category, AllProducts: []ProductScore{}}

	products := s.catalog.Products(category)
	if len(products) == 0 {
		result.Status = StatusSemProdutos
		s.logger.Debug("no catalog products", "item_id", itemID, "category", category)
		return result
	}
	if len(requirements) == 0 {
		result.Status = StatusSemAnalise
		return result
	}

	var mandatory, optional []Requirement
	for _, r := range requirements {
		if r.IsMandatory() {
			mandatory = append(mandatory, r)
		} else {
			optional = append(optional, r)
		}
	}

	for _, p := range products {
		result.AllProducts = append(result.AllProducts, s.scoreProduct(p, mandatory, optional))
	}
	sort.SliceStable(result.AllProducts, func(i, j int) bool {
		return result.AllProducts[i].ScorePercent > result.AllProducts[j].ScorePercent
	})

	best := result.AllProducts[0]
	result.BestMatch = &best
	result.Status = classify(best.ScorePercent)
	s.logger.Debug("item scored", "item_id", itemID, "category", category, "best_model", best.Model, "score_percent", best.ScorePercent)
	return result
}

func (s *Scorer) scoreProduct(p Product, mandatory, optional []Requirement) ProductScore {
	g := s.generator(p.Model)
	ps := ProductScore{
		Manufacturer:   p.Manufacturer,
		Model:          p.Model,
		MandatoryTotal: len(mandatory),
		OptionalTotal:  len(optional),
	}
	for _, r := range mandatory {
		ps.MaxScore += r.weight()
		if float64(g.IntN(100)) < p.Rating {
			ps.MandatoryMet++
			ps.Score += r.weight()
		}
	}
	for _, r := range optional {
		ps.MaxScore += r.weight()
		if float64(g.IntN(100)) < p.Rating+optionalRatingBump {
			ps.OptionalMet++
			ps.Score += r.weight()
		}
	}
	if ps.MaxScore > 0 {
		ps.ScorePercent = 100 * ps.Score / ps.MaxScore
	}
	return ps
}

func classify(percent float64) Status {
	switch {
	case percent >= conformeThreshold:
		return StatusConforme
	case percent >= parcialThreshold:
		return StatusParcial
	}
	return StatusNaoConforme
}
