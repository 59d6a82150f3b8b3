// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/editalproj/edital-mcp/internal/structure"
)

// pageFixture is a document already split into page texts, stored as YAML or JSON:
//
//	pages:
//	  - "1 CÂMERA DOME Unidade 246 R$ 3.439,53"
//	  - "..."
type pageFixture struct {
	Pages []string `yaml:"pages"`
}

// FixtureOpener opens YAML/JSON page fixtures. They let the heuristics be
// exercised on text captured from real documents without the PDF itself.
type FixtureOpener struct{}

func NewFixtureOpener() *FixtureOpener {
	return &FixtureOpener{}
}

func (o *FixtureOpener) Name() string {
	return "fixture"
}

func (o *FixtureOpener) CanHandle(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func (o *FixtureOpener) Open(_ context.Context, path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture content into a Memory document.
func ParseFixture(data []byte) (*Memory, error) {
	var fx pageFixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal page fixture: %w", structure.ErrDocumentUnreadable, err)
	}
	return NewMemory(fx.Pages...), nil
}
