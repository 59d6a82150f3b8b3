// SPDX-License-Identifier: Apache-2.0

package quality

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/editalproj/edital-mcp/internal/textnorm"
)

// Audit names, as they appear in Report.Checks.
const (
	CheckCompleteness        = "completeness"
	CheckConsistency         = "consistency"
	CheckReasoning           = "reasoning_quality"
	CheckEvidence            = "evidence_quality"
	CheckConfidence          = "confidence_levels"
	CheckVerdictDistribution = "verdict_distribution"
)

const (
	minConformeEvidenceLen    = 10
	minNaoConformeJustifyLen  = 20
	veryShortJustificationLen = 20
	shortJustificationLen     = 50
)

// Confidence levels after normalization.
const (
	ConfidenceHigh   = "alto"
	ConfidenceMedium = "médio"
	ConfidenceLow    = "baixo"
)

// Verdict buckets.
const (
	BucketConforme      = "conforme"
	BucketNaoConforme   = "nao_conforme"
	BucketParcial       = "parcial"
	BucketRequerAnalise = "requer_analise"
	BucketUnknown       = "unknown"
)

// VerdictBucket classifies a verdict. Buckets are tried in order: conforme
// (CONFORME without NÃO or PARCIAL), não conforme, parcial, requer análise.
func VerdictBucket(verdict string) string {
	v := textnorm.Fold(verdict)
	switch {
	case isConforme(v):
		return BucketConforme
	case strings.Contains(v, "NAO CONFORME"):
		return BucketNaoConforme
	case strings.Contains(v, "PARCIAL"):
		return BucketParcial
	case strings.Contains(v, "REQUER"):
		return BucketRequerAnalise
	}
	return BucketUnknown
}

func isConforme(folded string) bool {
	return strings.Contains(folded, "CONFORME") &&
		!strings.Contains(folded, "NAO") &&
		!strings.Contains(folded, "PARCIAL")
}

func requiresAnalysis(verdict string) bool {
	return strings.Contains(textnorm.Fold(verdict), "REQUER")
}

// NormalizeConfidence lower-cases a confidence level and restores the accent
// of "medio". Unrecognised levels are returned as normalised text.
func NormalizeConfidence(level string) string {
	l := strings.ToLower(strings.TrimSpace(level))
	if l == "medio" {
		return ConfidenceMedium
	}
	return l
}

func recognizedConfidence(level string) bool {
	switch level {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// AuditCompleteness: a field absent from every row costs 10; a field empty in
// more than 10% of rows costs 5; fewer empties only warn.
func AuditCompleteness(rows []Row) AuditResult {
	res := AuditResult{Name: CheckCompleteness}
	missing, sparse := 0, 0

	for _, field := range RequiredFields {
		present := false
		empty := 0
		for _, row := range rows {
			if _, ok := row[field]; ok {
				present = true
			}
			if row.value(field) == "" {
				empty++
			}
		}
		if !present {
			missing++
			res.Deduction += 10
			res.Errors = append(res.Errors, fmt.Sprintf("field %q is missing from the table", field))
			continue
		}
		if empty == 0 {
			continue
		}
		sparse++
		msg := fmt.Sprintf("field %q is empty in %d of %d rows (%.1f%%)", field, empty, len(rows), 100*rate(empty, len(rows)))
		if rate(empty, len(rows)) > 0.10 {
			res.Deduction += 5
			res.Errors = append(res.Errors, msg)
		} else {
			res.Warnings = append(res.Warnings, msg)
		}
	}

	res.Details = fmt.Sprintf("%d required fields, %d missing, %d with empty values", len(RequiredFields), missing, sparse)
	return res
}

// AuditConsistency flags rows whose verdict contradicts the rest of the row.
// More than 5% inconsistent rows costs 10; any inconsistency costs 2.
func AuditConsistency(rows []Row) AuditResult {
	res := AuditResult{Name: CheckConsistency}
	var issues []string

	for i, row := range rows {
		verdict := textnorm.Fold(row.value(FieldVerdict))
		evidence := row.value(FieldEvidence)
		justification := row.value(FieldJustification)
		confidence := NormalizeConfidence(row.value(FieldConfidence))
		label := rowLabel(i, row)

		switch {
		case verdict == "":
			issues = append(issues, fmt.Sprintf("%s has no verdict", label))
		case isConforme(verdict) && textnorm.Len(evidence) < minConformeEvidenceLen:
			issues = append(issues, fmt.Sprintf("%s is CONFORME with insufficient evidence", label))
		case strings.Contains(verdict, "NAO CONFORME") && textnorm.Len(justification) < minNaoConformeJustifyLen:
			issues = append(issues, fmt.Sprintf("%s is NÃO CONFORME with a justification under %d characters", label, minNaoConformeJustifyLen))
		case strings.Contains(verdict, "REQUER") && confidence == ConfidenceHigh:
			issues = append(issues, fmt.Sprintf("%s requires analysis but has high confidence", label))
		}
	}

	r := rate(len(issues), len(rows))
	switch {
	case r > 0.05:
		res.Deduction = 10
		res.Errors = append(res.Errors, fmt.Sprintf("%d inconsistent rows (%.1f%%): %s", len(issues), 100*r, summarize(issues)))
	case len(issues) > 0:
		res.Deduction = 2
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d inconsistent rows: %s", len(issues), summarize(issues)))
	}
	res.Details = fmt.Sprintf("%d of %d rows inconsistent", len(issues), len(rows))
	return res
}

// AuditReasoning grades justification length. Any empty justification costs
// 15; more than 10% very short (<20) costs 5; more than 30% short (<50) warns.
func AuditReasoning(rows []Row) AuditResult {
	res := AuditResult{Name: CheckReasoning}
	empty, veryShort, short := 0, 0, 0

	for _, row := range rows {
		n := textnorm.Len(row.value(FieldJustification))
		switch {
		case n == 0:
			empty++
		case n < veryShortJustificationLen:
			veryShort++
		case n < shortJustificationLen:
			short++
		}
	}

	if empty > 0 {
		res.Deduction += 15
		res.Errors = append(res.Errors, fmt.Sprintf("%d rows have no justification", empty))
	}
	if veryShort > 0 {
		msg := fmt.Sprintf("%d rows have very short justifications (<%d chars)", veryShort, veryShortJustificationLen)
		if rate(veryShort, len(rows)) > 0.10 {
			res.Deduction += 5
			res.Errors = append(res.Errors, msg)
		} else {
			res.Warnings = append(res.Warnings, msg)
		}
	}
	if rate(short, len(rows)) > 0.30 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d rows have short justifications (<%d chars)", short, shortJustificationLen))
	}

	res.Details = fmt.Sprintf("empty=%d very_short=%d short=%d", empty, veryShort, short)
	return res
}

// AuditEvidence checks evidence on rows that do not require further analysis.
// More than 10% missing costs 10, any missing costs 2; more than 20% of
// evidence not in source:line citation form costs 3.
func AuditEvidence(rows []Row) AuditResult {
	res := AuditResult{Name: CheckEvidence}
	considered, missing, withEvidence, uncited := 0, 0, 0, 0

	for _, row := range rows {
		if requiresAnalysis(row.value(FieldVerdict)) {
			continue
		}
		considered++
		evidence := row.value(FieldEvidence)
		if evidence == "" {
			missing++
			continue
		}
		withEvidence++
		if !isCitation(evidence) {
			uncited++
		}
	}

	if considered == 0 {
		res.Details = "no rows require evidence"
		return res
	}

	missRate := rate(missing, considered)
	switch {
	case missRate > 0.10:
		res.Deduction += 10
		res.Errors = append(res.Errors, fmt.Sprintf("%d of %d rows lack evidence (%.1f%%)", missing, considered, 100*missRate))
	case missing > 0:
		res.Deduction += 2
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d of %d rows lack evidence", missing, considered))
	}
	if rate(uncited, withEvidence) > 0.20 {
		res.Deduction += 3
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d of %d evidence entries are not source:line citations", uncited, withEvidence))
	}

	res.Details = fmt.Sprintf("checked=%d missing=%d uncited=%d", considered, missing, uncited)
	return res
}

// isCitation reports whether evidence looks like "source:line".
func isCitation(evidence string) bool {
	return strings.Contains(evidence, ":") && strings.IndexFunc(evidence, unicode.IsDigit) >= 0
}

// AuditConfidence: any unrecognised or empty level costs 10; more than half
// "baixo" among recognised levels costs 5; under 30% "alto" only warns.
func AuditConfidence(rows []Row) AuditResult {
	res := AuditResult{Name: CheckConfidence}
	counts := map[string]int{}
	invalid := 0

	for _, row := range rows {
		level := NormalizeConfidence(row.value(FieldConfidence))
		if !recognizedConfidence(level) {
			invalid++
			continue
		}
		counts[level]++
	}

	if invalid > 0 {
		res.Deduction += 10
		res.Errors = append(res.Errors, fmt.Sprintf("%d rows have an invalid or empty confidence level", invalid))
	}
	recognized := len(rows) - invalid
	if recognized > 0 {
		if rate(counts[ConfidenceLow], recognized) > 0.50 {
			res.Deduction += 5
			res.Warnings = append(res.Warnings, fmt.Sprintf("%.1f%% of rows have low confidence", 100*rate(counts[ConfidenceLow], recognized)))
		}
		if rate(counts[ConfidenceHigh], recognized) < 0.30 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("only %.1f%% of rows have high confidence", 100*rate(counts[ConfidenceHigh], recognized)))
		}
	}

	res.Details = fmt.Sprintf("alto=%d médio=%d baixo=%d invalid=%d",
		counts[ConfidenceHigh], counts[ConfidenceMedium], counts[ConfidenceLow], invalid)
	return res
}

// AuditVerdictDistribution: any unclassifiable verdict costs 5. A 0% or 100%
// conforme rate or more than 30% requer análise hints at bias and only warns.
func AuditVerdictDistribution(rows []Row) AuditResult {
	res := AuditResult{Name: CheckVerdictDistribution}
	counts := map[string]int{}
	for _, row := range rows {
		counts[VerdictBucket(row.value(FieldVerdict))]++
	}

	if n := counts[BucketUnknown]; n > 0 {
		res.Deduction += 5
		res.Errors = append(res.Errors, fmt.Sprintf("%d rows have an unrecognised verdict", n))
	}
	switch conforme := rate(counts[BucketConforme], len(rows)); conforme {
	case 1:
		res.Warnings = append(res.Warnings, "every row is CONFORME; check for bias")
	case 0:
		res.Warnings = append(res.Warnings, "no row is CONFORME; check for bias")
	}
	if rate(counts[BucketRequerAnalise], len(rows)) > 0.30 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d rows require further analysis", counts[BucketRequerAnalise]))
	}

	res.Details = fmt.Sprintf("%s=%d %s=%d %s=%d %s=%d %s=%d",
		BucketConforme, counts[BucketConforme],
		BucketNaoConforme, counts[BucketNaoConforme],
		BucketParcial, counts[BucketParcial],
		BucketRequerAnalise, counts[BucketRequerAnalise],
		BucketUnknown, counts[BucketUnknown])
	return res
}

func rowLabel(i int, row Row) string {
	if item := row.value(FieldItem); item != "" {
		return fmt.Sprintf("row %d (item %s)", i+1, item)
	}
	return fmt.Sprintf("row %d", i+1)
}

// summarize keeps messages short for large tables.
func summarize(issues []string) string {
	const max = 3
	if len(issues) <= max {
		return strings.Join(issues, "; ")
	}
	return strings.Join(issues[:max], "; ") + fmt.Sprintf("; and %d more", len(issues)-max)
}
