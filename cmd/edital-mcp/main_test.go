// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/editalproj/edital-mcp/internal/config"
	"github.com/editalproj/edital-mcp/internal/conformity"
	"github.com/editalproj/edital-mcp/internal/ledger"
	"github.com/editalproj/edital-mcp/internal/structure"
)

const editalText = "PREGÃO ELETRÔNICO 12/2025\n" +
	"8 CÂMERA DOME Unidade 246 R$ 3.439,53\n" +
	"\fANEXO I - CONDIÇÕES GERAIS\n" +
	"\fANEXO II - MINUTA DO CONTRATO\n"

// run executes the CLI with a config pointing into dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(dir, "edital.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := fmt.Sprintf("ledger:\n  path: %s\nlogging:\n  level: error\n", filepath.Join(dir, "ledger.csv"))
		require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	}
	t.Setenv(config.EnvLedgerDSN, "")
	t.Setenv(config.EnvLogLevel, "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"generic", errors.New("boom"), exitFailure},
		{"gate", &exitError{code: exitGateFailed, err: errors.New("low")}, exitGateFailed},
		{"unreadable", fmt.Errorf("open: %w", structure.ErrDocumentUnreadable), exitUnreadable},
		{"selection", structure.ErrInvalidSelection, exitValidation},
		{"duplicate", fmt.Errorf("x: %w", ledger.ErrDuplicateAnalysis), exitValidation},
		{"config", config.ErrInvalidConfig, exitValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestAnalyzeAndSelect(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "edital.txt", editalText)

	out, err := run(t, dir, "analyze", doc)
	require.NoError(t, err)

	var s structure.EditalStructure
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 3, s.TotalPages)
	require.Equal(t, 1, s.TotalItems)
	assert.Equal(t, "8", s.Items[0].ItemID)
	assert.True(t, s.Items[0].SpecPages.Unknown)
	assert.Greater(t, s.Items[0].EstimatedRequirements, 0)

	structurePath := filepath.Join(dir, "structure.json")
	_, err = run(t, dir, "analyze", doc, "--output", structurePath)
	require.NoError(t, err)

	out, err = run(t, dir, "select", structurePath, "1")
	require.NoError(t, err)
	var sel structure.Selection
	require.NoError(t, json.Unmarshal([]byte(out), &sel))
	assert.Equal(t, []int{1}, sel.SelectedIndices)

	_, err = run(t, dir, "select", structurePath, "2")
	assert.Equal(t, exitValidation, exitCode(err))
}

func TestAnalyze_Unreadable(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "analyze", writeFile(t, dir, "broken.pdf", "%PDF-1.7 truncated"))
	assert.Equal(t, exitUnreadable, exitCode(err))
}

func TestQualityGate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv",
		"item,categoria,descricao,veredicto,justificativa,evidencias,nivel_confianca\n"+
			"1,camera,Resolução 4MP,CONFORME,O datasheet declara resolução de 4MP acima do mínimo exigido pelo edital.,datasheet.pdf:12,alto\n")
	bad := writeFile(t, dir, "bad.csv", "item,veredicto\n1,CONFORME\n")

	out, err := run(t, dir, "quality", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 100.0/100")

	out, err = run(t, dir, "quality", bad, "--format", "json")
	assert.Equal(t, exitGateFailed, exitCode(err))
	assert.Contains(t, out, `"status": "success"`)

	_, err = run(t, dir, "quality", bad, "--pass-score", "0")
	assert.NoError(t, err)
}

func TestConformity(t *testing.T) {
	dir := t.TempDir()
	reqs := writeFile(t, dir, "reqs.yaml", "- descricao: Resolução mínima de 4MP\n  obrigatorio: SIM\n- descricao: IR 30m\n  obrigatorio: NAO\n")

	first, err := run(t, dir, "conformity", "--item-id", "8", "--description", "CÂMERA DOME", "--requirements", reqs)
	require.NoError(t, err)
	second, err := run(t, dir, "conformity", "--item-id", "8", "--description", "CÂMERA DOME", "--requirements", reqs)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var res conformity.Result
	require.NoError(t, json.Unmarshal([]byte(first), &res))
	assert.Equal(t, conformity.CategoryCamera, res.Category)
	assert.Len(t, res.AllProducts, 3)

	_, err = run(t, dir, "conformity", "--description", "x")
	assert.Error(t, err)
}

func TestLedgerCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "ledger", "register", "--document", "edital_001.pdf", "--requirements", "42", "--execution-time", "2m30s")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered analysis 1: edital_001.pdf")

	_, err = run(t, dir, "ledger", "register", "--document", "edital_001.pdf")
	assert.Equal(t, exitValidation, exitCode(err))
	assert.ErrorIs(t, err, ledger.ErrDuplicateAnalysis)

	out, err = run(t, dir, "ledger", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "edital_001.pdf")
	assert.Contains(t, out, "Total: 1")

	out, err = run(t, dir, "ledger", "list", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"execution_time": "2m30s"`)

	out, err = run(t, dir, "ledger", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Requirements: 42")

	_, err = run(t, dir, "ledger", "show", "5")
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "edital.yaml", "locator:\n  scan_begin: 1\n")
	_, err := run(t, dir, "ledger", "list")
	assert.Equal(t, exitValidation, exitCode(err))
}
