// SPDX-License-Identifier: Apache-2.0

// Package tool exposes the edital analysis operations as MCP tools.
package tool

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/editalproj/edital-mcp/internal/conformity"
	"github.com/editalproj/edital-mcp/internal/ledger"
	"github.com/editalproj/edital-mcp/internal/quality"
	"github.com/editalproj/edital-mcp/internal/structure"
	"github.com/editalproj/edital-mcp/internal/structure/sources"
)

// ServerName is the MCP implementation name.
const ServerName = "edital-mcp"

// Toolset holds the components the tool handlers call.
type Toolset struct {
	analyzer   *structure.Analyzer
	sources    *sources.Registry
	quality    *quality.Scorer
	passScore  float64
	conformity *conformity.Scorer
	ledger     *ledger.Ledger
	logger     *slog.Logger
}

// Option configures a Toolset.
type Option func(*Toolset)

func WithAnalyzer(a *structure.Analyzer) Option {
	return func(t *Toolset) { t.analyzer = a }
}

func WithSources(r *sources.Registry) Option {
	return func(t *Toolset) { t.sources = r }
}

func WithQualityScorer(s *quality.Scorer, passScore float64) Option {
	return func(t *Toolset) {
		t.quality = s
		t.passScore = passScore
	}
}

func WithConformityScorer(s *conformity.Scorer) Option {
	return func(t *Toolset) { t.conformity = s }
}

// WithLedger enables register_analysis and list_analyses.
func WithLedger(l *ledger.Ledger) Option {
	return func(t *Toolset) { t.ledger = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Toolset) { t.logger = l }
}

// NewToolset creates a Toolset; components not supplied get their defaults.
// Without a ledger the ledger tools are not registered.
func NewToolset(opts ...Option) *Toolset {
	t := &Toolset{passScore: quality.DefaultPassScore}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	if t.analyzer == nil {
		t.analyzer = structure.NewAnalyzer(structure.WithLogger(t.logger))
	}
	if t.sources == nil {
		t.sources = sources.Default()
	}
	if t.quality == nil {
		t.quality = quality.NewScorer(quality.WithLogger(t.logger))
	}
	if t.conformity == nil {
		t.conformity = conformity.NewScorer(nil, conformity.WithLogger(t.logger))
	}
	return t
}

// NewServer creates an MCP server with every tool of t registered.
func NewServer(t *Toolset, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	t.Register(server)
	return server
}

// Register adds the tools of t to server.
func (t *Toolset) Register(server *mcp.Server) {
	mcp.AddTool(server, MetadataAnalyzeEditalStructure, t.AnalyzeEditalStructure)
	mcp.AddTool(server, MetadataParseItemSelection, t.ParseItemSelection)
	mcp.AddTool(server, MetadataScoreAnalysisQuality, t.ScoreAnalysisQuality)
	mcp.AddTool(server, MetadataScoreItemConformity, t.ScoreItemConformity)
	if t.ledger != nil {
		mcp.AddTool(server, MetadataRegisterAnalysis, t.RegisterAnalysis)
		mcp.AddTool(server, MetadataListAnalyses, t.ListAnalyses)
	}
}

// objectSchema is the output schema of every tool. Results carry custom JSON
// encodings, so their shape is documented in the tool description instead.
func objectSchema() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}
