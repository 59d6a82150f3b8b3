// SPDX-License-Identifier: Apache-2.0

// Package quality audits a finished requirement/analysis table for
// completeness, internal consistency, evidential support and statistical
// plausibility, and folds the audits into a 0–100 score.
package quality

import (
	"log/slog"
	"strings"
)

// Row is one record of an analysis table, keyed by column name.
type Row map[string]string

// Column names of an analysis table.
const (
	FieldItem          = "item"
	FieldCategory      = "categoria"
	FieldDescription   = "descricao"
	FieldVerdict       = "veredicto"
	FieldJustification = "justificativa"
	FieldEvidence      = "evidencias"
	FieldConfidence    = "nivel_confianca"
)

// RequiredFields lists the columns every row must carry.
var RequiredFields = []string{
	FieldItem, FieldCategory, FieldDescription, FieldVerdict,
	FieldJustification, FieldEvidence, FieldConfidence,
}

func (r Row) value(field string) string {
	return strings.TrimSpace(r[field])
}

// AuditResult is what one audit contributes to the fold.
type AuditResult struct {
	Name      string
	Deduction float64
	Details   string
	Warnings  []string
	Errors    []string
}

// Check converts the result into its report entry; an audit passes iff it
// produced no error.
func (a AuditResult) Check() Check {
	return Check{Name: a.Name, Passed: len(a.Errors) == 0, Details: a.Details}
}

// Audit inspects a table. Audits are independent and order-free.
type Audit func(rows []Row) AuditResult

// DefaultAudits returns the six standard audits in report order.
func DefaultAudits() []Audit {
	return []Audit{
		AuditCompleteness,
		AuditConsistency,
		AuditReasoning,
		AuditEvidence,
		AuditConfidence,
		AuditVerdictDistribution,
	}
}

// Scorer runs audits over analysis tables.
type Scorer struct {
	audits []Audit
	logger *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

func WithAudits(audits ...Audit) Option {
	return func(s *Scorer) { s.audits = audits }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// NewScorer creates a Scorer running DefaultAudits.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{audits: DefaultAudits()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Score audits rows. Every audit runs and contributes exactly one check; the
// score is 100 minus the sum of all deductions, computed once. An empty table
// cannot be audited and yields an error-status report with score 0.
func (s *Scorer) Score(rows []Row) *Report {
	report := &Report{
		Status:    StatusSuccess,
		TotalRows: len(rows),
		Warnings:  []string{},
		Errors:    []string{},
		Checks:    []Check{},
	}
	if len(rows) == 0 {
		report.Status = StatusError
		report.Errors = append(report.Errors, "table has no rows to audit")
		return report
	}

	results := make([]AuditResult, 0, len(s.audits))
	for _, audit := range s.audits {
		results = append(results, audit(rows))
	}

	var deductions float64
	for _, res := range results {
		deductions += res.Deduction
		check := res.Check()
		report.Checks = append(report.Checks, check)
		if check.Passed {
			report.ChecksPassed++
		} else {
			report.ChecksFailed++
		}
		report.Warnings = append(report.Warnings, res.Warnings...)
		report.Errors = append(report.Errors, res.Errors...)
		s.logger.Debug("audit finished", "audit", res.Name, "deduction", res.Deduction, "passed", check.Passed)
	}
	report.Score = 100 - deductions

	s.logger.Info("table scored", "rows", len(rows), "score", report.Score, "failed_checks", report.ChecksFailed)
	return report
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
