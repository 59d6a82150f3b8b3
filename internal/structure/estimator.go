// SPDX-License-Identifier: Apache-2.0

package structure

import (
	"github.com/editalproj/edital-mcp/internal/textnorm"
)

// categoryRule maps a set of trigger keywords to an item category and the
// number of requirements a specification of that category usually carries.
type categoryRule struct {
	keywords             []string
	category             string
	expectedRequirements int
}

// categoryRules is evaluated in order; the first match wins.
var categoryRules = []categoryRule{
	{keywords: []string{"CAMERA"}, category: "camera", expectedRequirements: 25},
	{keywords: []string{"SERVIDOR", "SERVER"}, category: "servidor", expectedRequirements: 30},
	{keywords: []string{"SOFTWARE", "LICENCA", "VMS"}, category: "software", expectedRequirements: 20},
	{keywords: []string{"SWITCH"}, category: "switch", expectedRequirements: 18},
	{keywords: []string{"SENSOR"}, category: "sensor", expectedRequirements: 12},
	{keywords: []string{"INSTALACAO", "SERVICO", "CONFIGURACAO", "TREINAMENTO"}, category: "servico", expectedRequirements: 8},
}

const (
	defaultCategory             = "outros"
	defaultExpectedRequirements = 15
)

// Estimate is the fallback requirement count for an item.
type Estimate struct {
	Category     string
	Requirements int
}

// RequirementEstimator infers an item category from its description and maps
// it to a fixed expected requirement count.
type RequirementEstimator struct{}

// NewRequirementEstimator creates a new RequirementEstimator.
func NewRequirementEstimator() *RequirementEstimator {
	return &RequirementEstimator{}
}

func (e *RequirementEstimator) Estimate(description string) Estimate {
	for _, rule := range categoryRules {
		if textnorm.ContainsAny(description, rule.keywords...) {
			return Estimate{Category: rule.category, Requirements: rule.expectedRequirements}
		}
	}
	return Estimate{Category: defaultCategory, Requirements: defaultExpectedRequirements}
}
